package graph

import (
	"log"

	"github.com/paulmach/orb"

	"github.com/kass/go-safe-route/pkg/classify"
)

// Segment is one raw road geometry with its classification tags. Tags may be
// empty; the classifier degrades to a neutral default.
type Segment struct {
	Line    orb.LineString
	Surface string
	Highway string
}

// Build converts raw road segments into a connected, routable graph.
//
// Every vertex is rounded to 6 decimal digits, each consecutive vertex pair
// becomes an undirected edge weighted by great-circle length, and the whole
// polyline shares one safety factor. Geometry that is not a usable polyline
// (fewer than two vertices, or collapsing to a single node after rounding)
// is skipped rather than failing the build. If the resulting graph is
// disconnected, only the largest connected component survives.
func Build(segments []Segment) *Graph {
	g := newGraph()
	skipped := 0

	for _, s := range segments {
		if len(s.Line) < 2 {
			skipped++
			continue
		}
		safety := classify.Factor(s.Surface, s.Highway)

		prev := RoundCoord(s.Line[0][0], s.Line[0][1])
		for i := 1; i < len(s.Line); i++ {
			cur := RoundCoord(s.Line[i][0], s.Line[i][1])
			if cur == prev {
				// sub-meter vertex collapsed by rounding
				continue
			}
			g.addEdge(prev, cur, Edge{Length: Haversine(prev, cur), Safety: safety})
			prev = cur
		}
	}

	if skipped > 0 {
		log.Printf("graph: skipped %d unusable segments", skipped)
	}
	log.Printf("graph: built %d nodes, %d edges", g.NodeCount(), g.EdgeCount())

	return largestComponent(g)
}

// largestComponent returns g unchanged when it is already connected,
// otherwise a new graph holding only the component with the most nodes.
// Components are discovered by BFS seeded from nodes in sorted order, so a
// size tie resolves to the first component found.
func largestComponent(g *Graph) *Graph {
	if g.NodeCount() == 0 {
		return g
	}

	visited := make(map[Coord]bool, g.NodeCount())
	var best []Coord

	for _, seed := range g.Nodes() {
		if visited[seed] {
			continue
		}
		component := []Coord{seed}
		visited[seed] = true
		for frontier := []Coord{seed}; len(frontier) > 0; {
			n := frontier[0]
			frontier = frontier[1:]
			for nb := range g.adj[n] {
				if !visited[nb] {
					visited[nb] = true
					component = append(component, nb)
					frontier = append(frontier, nb)
				}
			}
		}
		if len(component) > len(best) {
			best = component
		}
	}

	if len(best) == g.NodeCount() {
		return g
	}

	sub := newGraph()
	keep := make(map[Coord]bool, len(best))
	for _, c := range best {
		keep[c] = true
	}
	for _, u := range g.Nodes() {
		if !keep[u] {
			continue
		}
		for v, e := range g.adj[u] {
			if _, done := sub.adj[u][v]; !done {
				sub.addEdge(u, v, e)
			}
		}
	}

	log.Printf("graph: disconnected input reduced to largest component: %d nodes, %d edges",
		sub.NodeCount(), sub.EdgeCount())
	return sub
}
