package router

import (
	"container/heap"

	"github.com/kass/go-safe-route/pkg/graph"
)

type pqItem struct {
	node  graph.Coord
	cost  float64
	index int
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].cost < pq[j].cost
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x interface{}) {
	item := x.(*pqItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[0 : n-1]
	return item
}

// shortestPath runs Dijkstra from start to goal over g using cost as the
// edge weight. Weights must be non-negative. Duplicate heap entries are
// allowed (lazy decrease-key); stale entries are skipped on pop, so each
// node's cost is finalized exactly once, in non-decreasing order.
//
// Returns the node sequence from start to goal, the total cost, and whether
// a path exists.
func shortestPath(g *graph.Graph, start, goal graph.Coord, cost func(graph.Edge) float64) ([]graph.Coord, float64, bool) {
	return searchPath(g, start, goal, cost, nil)
}

// searchPath is shortestPath with an observation hook: settled, when non-nil,
// is called with each node and its cost at the moment the cost is finalized.
func searchPath(g *graph.Graph, start, goal graph.Coord, cost func(graph.Edge) float64, settled func(graph.Coord, float64)) ([]graph.Coord, float64, bool) {
	if start == goal {
		if settled != nil {
			settled(start, 0)
		}
		return []graph.Coord{start}, 0, true
	}

	dist := map[graph.Coord]float64{start: 0}
	prev := make(map[graph.Coord]graph.Coord)
	done := make(map[graph.Coord]bool)

	pq := &priorityQueue{{node: start, cost: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		current := heap.Pop(pq).(*pqItem)
		if done[current.node] {
			continue
		}
		done[current.node] = true
		if settled != nil {
			settled(current.node, current.cost)
		}
		if current.node == goal {
			break
		}

		for nb, e := range g.Neighbors(current.node) {
			if done[nb] {
				continue
			}
			next := dist[current.node] + cost(e)
			if d, seen := dist[nb]; !seen || next < d {
				dist[nb] = next
				prev[nb] = current.node
				heap.Push(pq, &pqItem{node: nb, cost: next})
			}
		}
	}

	total, reached := dist[goal]
	if !reached || !done[goal] {
		return nil, 0, false
	}

	path := []graph.Coord{goal}
	for cur := goal; cur != start; {
		cur = prev[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, total, true
}
