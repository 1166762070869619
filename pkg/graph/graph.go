// Package graph builds and serves the road-network graph: rounded coordinate
// nodes, undirected edges weighted by great-circle length and safety factor,
// an R-Tree nearest-node index and a versioned on-disk cache.
package graph

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

const (
	// coordScale rounds coordinates to 6 decimal digits (~0.11 m) so shared
	// endpoints across distinct input segments collapse to the same node.
	coordScale = 1e6

	// earthRadiusM is the spherical-earth radius used for distances, meters.
	earthRadiusM = 6371000.0
)

// Coord is a rounded (longitude, latitude) pair. The coordinate is the node's
// identity: two segments ending on the same rounded pair share a node.
type Coord struct {
	Lon float64
	Lat float64
}

// Point returns the coordinate as an orb point.
func (c Coord) Point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

// RoundCoord rounds a raw (lon, lat) pair to graph precision.
func RoundCoord(lon, lat float64) Coord {
	return Coord{Lon: round6(lon), Lat: round6(lat)}
}

func round6(v float64) float64 {
	return math.Round(v*coordScale) / coordScale
}

// Edge carries the attributes of the undirected connection between two nodes.
type Edge struct {
	Length float64 // great-circle length in meters
	Safety float64 // surface safety factor, >= 1.0
}

// Graph is the routable road network. It is immutable once built and safe
// for concurrent readers; queries must never mutate it.
type Graph struct {
	adj       map[Coord]map[Coord]Edge
	edgeCount int
}

func newGraph() *Graph {
	return &Graph{adj: make(map[Coord]map[Coord]Edge)}
}

// addEdge inserts the undirected edge u-v. A duplicate pair overwrites the
// previous attributes (last write wins).
func (g *Graph) addEdge(u, v Coord, e Edge) {
	if g.adj[u] == nil {
		g.adj[u] = make(map[Coord]Edge)
	}
	if g.adj[v] == nil {
		g.adj[v] = make(map[Coord]Edge)
	}
	if _, dup := g.adj[u][v]; !dup {
		g.edgeCount++
	}
	g.adj[u][v] = e
	g.adj[v][u] = e
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.adj)
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	return g.edgeCount
}

// Neighbors returns the adjacency of node c. The returned map is shared,
// read-only state.
func (g *Graph) Neighbors(c Coord) map[Coord]Edge {
	return g.adj[c]
}

// EdgeBetween returns the edge connecting u and v, if one exists.
func (g *Graph) EdgeBetween(u, v Coord) (Edge, bool) {
	e, ok := g.adj[u][v]
	return e, ok
}

// Nodes returns all nodes in ascending (lon, lat) order. The order is stable
// across runs so component extraction and iteration-dependent tie-breaks are
// deterministic.
func (g *Graph) Nodes() []Coord {
	nodes := make([]Coord, 0, len(g.adj))
	for c := range g.adj {
		nodes = append(nodes, c)
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Lon != nodes[j].Lon {
			return nodes[i].Lon < nodes[j].Lon
		}
		return nodes[i].Lat < nodes[j].Lat
	})
	return nodes
}

// Bound returns the bounding box of the node set.
func (g *Graph) Bound() orb.Bound {
	b := orb.Bound{Min: orb.Point{180, 90}, Max: orb.Point{-180, -90}}
	for c := range g.adj {
		b = b.Extend(c.Point())
	}
	return b
}

// Haversine returns the great-circle distance between two coordinates in
// meters, on a spherical earth.
func Haversine(a, b Coord) float64 {
	phi1 := a.Lat * math.Pi / 180.0
	phi2 := b.Lat * math.Pi / 180.0
	dPhi := (b.Lat - a.Lat) * math.Pi / 180.0
	dLambda := (b.Lon - a.Lon) * math.Pi / 180.0

	s := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*
			math.Sin(dLambda/2)*math.Sin(dLambda/2)

	return earthRadiusM * 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
}
