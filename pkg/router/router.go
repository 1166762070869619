// Package router answers risk-aware routing queries: given a start point,
// a risk profile and candidate destinations, it finds the lowest-cost path
// through the road graph, trading physical distance against surface risk.
package router

import (
	"errors"
	"math"
	"sort"

	"github.com/paulmach/orb"

	"github.com/kass/go-safe-route/pkg/graph"
	"github.com/kass/go-safe-route/pkg/models"
)

// maxCandidates bounds the number of destinations evaluated with a full
// shortest-path search. Candidates are pre-ranked by straight-line proximity,
// but the weighted search decides the winner: the nearest destination by air
// is not necessarily cheapest by road.
const maxCandidates = 5

var (
	// ErrNoRoute means no candidate destination is reachable from the start.
	// A normal negative result, not a fault.
	ErrNoRoute = errors.New("no route found")

	// ErrNotReady means the engine has not built or loaded a graph yet.
	ErrNotReady = errors.New("routing engine not initialized")
)

// RouteResult is the outcome of one successful query. It is created fresh
// per query and never mutated afterwards.
type RouteResult struct {
	// Path is the route geometry: an ordered sequence of two-point line
	// segments whose concatenation is the full path.
	Path orb.MultiLineString

	DistanceMeters  float64
	AvgSafetyFactor float64
	HighRisk        bool
	Destination     models.Destination
}

// Router runs queries against one immutable graph.
type Router struct {
	graph *graph.Graph
	index *graph.NodeIndex
}

// New builds a router, including the nearest-node index, for g.
func New(g *graph.Graph) *Router {
	return &Router{graph: g, index: graph.NewNodeIndex(g)}
}

// edgeCost selects the cost function for the risk profile. Squaring the
// safety factor under high risk amplifies the penalty for poor surfaces
// disproportionately to distance.
func edgeCost(highRisk bool) func(graph.Edge) float64 {
	if highRisk {
		return func(e graph.Edge) float64 { return e.Length * e.Safety * e.Safety }
	}
	return func(e graph.Edge) float64 { return e.Length * e.Safety }
}

// Route finds the cheapest risk-weighted path from the start point to the
// best of the supplied destinations.
//
// The top maxCandidates destinations by straight-line proximity are each
// resolved to their nearest graph node and evaluated with a weighted
// shortest-path search; the minimum-cost candidate wins, first found on an
// exact cost tie. Returns ErrNoRoute when no candidate is reachable or the
// destination list is empty.
func (r *Router) Route(startLat, startLon float64, profile models.RiskProfile, destinations []models.Destination) (*RouteResult, error) {
	start, ok := r.index.Nearest(startLat, startLon)
	if !ok {
		return nil, ErrNoRoute
	}
	if len(destinations) == 0 {
		return nil, ErrNoRoute
	}

	candidates := rankByProximity(startLat, startLon, destinations)
	highRisk := profile.HighRisk()
	cost := edgeCost(highRisk)

	var (
		bestPath []graph.Coord
		bestDest models.Destination
		bestCost = math.Inf(1)
		found    bool
	)
	for _, dest := range candidates {
		end, ok := r.index.Nearest(dest.Location.Lat, dest.Location.Lon)
		if !ok {
			continue
		}
		path, total, ok := shortestPath(r.graph, start, end, cost)
		if !ok {
			continue
		}
		if total < bestCost {
			bestCost = total
			bestPath = path
			bestDest = dest
			found = true
		}
	}
	if !found {
		return nil, ErrNoRoute
	}

	return r.assemble(startLat, startLon, bestPath, bestDest, highRisk), nil
}

// rankByProximity returns up to maxCandidates destinations ordered by planar
// squared distance to the start point. The sort is stable so equal distances
// keep their input order.
func rankByProximity(startLat, startLon float64, destinations []models.Destination) []models.Destination {
	ranked := make([]models.Destination, len(destinations))
	copy(ranked, destinations)
	sort.SliceStable(ranked, func(i, j int) bool {
		return planarSq(startLat, startLon, ranked[i]) < planarSq(startLat, startLon, ranked[j])
	})
	if len(ranked) > maxCandidates {
		ranked = ranked[:maxCandidates]
	}
	return ranked
}

func planarSq(lat, lon float64, d models.Destination) float64 {
	dLat := d.Location.Lat - lat
	dLon := d.Location.Lon - lon
	return dLat*dLat + dLon*dLon
}

// assemble reconstructs the result geometry and summary statistics.
//
// The reported distance starts from the literal query point: when the rounded
// query point differs from the first path node a connector segment is
// prepended, outside the weighted cost but counted in total distance. Its
// safety contribution is neutral (1.0) since it crosses no classified road.
func (r *Router) assemble(startLat, startLon float64, path []graph.Coord, dest models.Destination, highRisk bool) *RouteResult {
	lines := make(orb.MultiLineString, 0, len(path))

	clicked := graph.RoundCoord(startLon, startLat)
	if clicked != path[0] {
		lines = append(lines, orb.LineString{clicked.Point(), path[0].Point()})
	}

	total := graph.Haversine(graph.Coord{Lon: startLon, Lat: startLat}, path[0])
	weighted := total * 1.0

	for i := 0; i < len(path)-1; i++ {
		u, v := path[i], path[i+1]
		e, _ := r.graph.EdgeBetween(u, v)
		lines = append(lines, orb.LineString{u.Point(), v.Point()})
		total += e.Length
		weighted += e.Length * e.Safety
	}

	avgSafety := 1.0
	if total > 0 {
		avgSafety = weighted / total
	}

	return &RouteResult{
		Path:            lines,
		DistanceMeters:  total,
		AvgSafetyFactor: avgSafety,
		HighRisk:        highRisk,
		Destination:     dest,
	}
}
