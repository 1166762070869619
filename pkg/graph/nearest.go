package graph

import (
	"github.com/dhconnelly/rtreego"
)

const (
	tolerance   = 1e-6
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
)

// nodeItem wraps a node coordinate to implement rtreego.Spatial
type nodeItem struct {
	coord Coord
	rect  *rtreego.Rect
}

func (n *nodeItem) Bounds() *rtreego.Rect {
	return n.rect
}

// NodeIndex answers nearest-node queries against an immutable graph's node
// set. It is built once after the graph is published and is safe for
// concurrent readers; the underlying R-Tree is never mutated afterwards.
type NodeIndex struct {
	tree *rtreego.Rtree
	size int
}

// NewNodeIndex indexes every node of g. Nodes are inserted in sorted order
// so equidistant queries resolve to the same node on every build.
func NewNodeIndex(g *Graph) *NodeIndex {
	tree := rtreego.NewTree(dimensions, minChildren, maxChildren)
	nodes := g.Nodes()
	for _, c := range nodes {
		p := rtreego.Point{c.Lon, c.Lat}
		tree.Insert(&nodeItem{coord: c, rect: p.ToRect(tolerance)})
	}
	return &NodeIndex{tree: tree, size: len(nodes)}
}

// Nearest returns the graph node closest to the query point in planar
// (lon, lat) space. The query is rounded to graph precision first. The second
// return value is false only when the graph has no nodes.
func (ix *NodeIndex) Nearest(lat, lon float64) (Coord, bool) {
	if ix.size == 0 {
		return Coord{}, false
	}
	q := RoundCoord(lon, lat)
	found := ix.tree.NearestNeighbor(rtreego.Point{q.Lon, q.Lat})
	if found == nil {
		return Coord{}, false
	}
	return found.(*nodeItem).coord, true
}

// Size returns the number of indexed nodes.
func (ix *NodeIndex) Size() int {
	return ix.size
}
