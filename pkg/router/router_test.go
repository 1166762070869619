package router

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kass/go-safe-route/pkg/graph"
	"github.com/kass/go-safe-route/pkg/models"
)

var (
	n1 = graph.Coord{Lon: 0, Lat: 0}
	n2 = graph.Coord{Lon: 0, Lat: 0.001}
	n3 = graph.Coord{Lon: 0, Lat: 0.002}
)

// threeNodeLine is a chain n1-n2-n3 where the first edge is ideal surface
// and the second is a dirt road (safety 1.8).
func threeNodeLine(t *testing.T) *graph.Graph {
	t.Helper()
	return graph.Build([]graph.Segment{
		{Line: orb.LineString{{0, 0}, {0, 0.001}}, Surface: "asphalt"},
		{Line: orb.LineString{{0, 0.001}, {0, 0.002}}, Surface: "dirt"},
	})
}

func destAt(name string, c graph.Coord) models.Destination {
	return models.Destination{Name: name, Location: models.Location{Lat: c.Lat, Lon: c.Lon}}
}

func TestShortestPathLowRiskCost(t *testing.T) {
	g := threeNodeLine(t)
	l1 := graph.Haversine(n1, n2)
	l2 := graph.Haversine(n2, n3)

	path, cost, ok := shortestPath(g, n1, n3, edgeCost(false))
	require.True(t, ok)
	assert.Equal(t, []graph.Coord{n1, n2, n3}, path)
	assert.InDelta(t, l1*1.0+l2*1.8, cost, 1e-9)
}

func TestShortestPathHighRiskCost(t *testing.T) {
	g := threeNodeLine(t)
	l1 := graph.Haversine(n1, n2)
	l2 := graph.Haversine(n2, n3)

	path, cost, ok := shortestPath(g, n1, n3, edgeCost(true))
	require.True(t, ok)
	assert.Equal(t, []graph.Coord{n1, n2, n3}, path)
	assert.InDelta(t, l1*1.0+l2*1.8*1.8, cost, 1e-9)
}

func TestHighRiskCostDominatesLowRisk(t *testing.T) {
	g := threeNodeLine(t)

	_, low, ok := shortestPath(g, n1, n3, edgeCost(false))
	require.True(t, ok)
	_, high, ok := shortestPath(g, n1, n3, edgeCost(true))
	require.True(t, ok)
	assert.Greater(t, high, low, "a path with safety > 1.0 must cost more under high risk")

	// equal when every factor is exactly 1.0
	_, low, ok = shortestPath(g, n1, n2, edgeCost(false))
	require.True(t, ok)
	_, high, ok = shortestPath(g, n1, n2, edgeCost(true))
	require.True(t, ok)
	assert.Equal(t, low, high)
}

func TestSearchPathSettlesCostsInNonDecreasingOrder(t *testing.T) {
	// A braided graph with two routes north plus a dirt crossover, so the
	// search has competing frontiers and revisits queued nodes with better
	// costs before settling them.
	g := graph.Build([]graph.Segment{
		{Line: orb.LineString{{0, 0}, {0, 0.001}, {0, 0.002}, {0, 0.003}}, Surface: "asphalt"},
		{Line: orb.LineString{{0, 0}, {0.001, 0}, {0.001, 0.003}, {0, 0.003}}, Surface: "gravel"},
		{Line: orb.LineString{{0, 0.001}, {0.001, 0.003}}, Surface: "dirt"},
	})
	start := graph.Coord{Lon: 0, Lat: 0}
	goal := graph.Coord{Lon: 0, Lat: 0.003}

	var nodes []graph.Coord
	var costs []float64
	path, total, ok := searchPath(g, start, goal, edgeCost(false), func(c graph.Coord, cost float64) {
		nodes = append(nodes, c)
		costs = append(costs, cost)
	})
	require.True(t, ok)
	require.NotEmpty(t, costs)

	// each node is finalized once, starting at the origin with cost zero
	assert.Equal(t, start, nodes[0])
	assert.Zero(t, costs[0])
	seen := make(map[graph.Coord]bool)
	for _, c := range nodes {
		assert.False(t, seen[c], "node finalized twice: %v", c)
		seen[c] = true
	}

	for i := 1; i < len(costs); i++ {
		assert.GreaterOrEqual(t, costs[i], costs[i-1],
			"finalized cost decreased at step %d", i)
	}

	// the goal is the last finalized node and carries the reported total
	assert.Equal(t, goal, nodes[len(nodes)-1])
	assert.InDelta(t, total, costs[len(costs)-1], 1e-9)
	assert.Equal(t, start, path[0])
	assert.Equal(t, goal, path[len(path)-1])
}

func TestShortestPathSameNode(t *testing.T) {
	g := threeNodeLine(t)
	path, cost, ok := shortestPath(g, n2, n2, edgeCost(false))
	require.True(t, ok)
	assert.Equal(t, []graph.Coord{n2}, path)
	assert.Zero(t, cost)
}

func TestRouteLowRisk(t *testing.T) {
	r := New(threeNodeLine(t))
	l1 := graph.Haversine(n1, n2)
	l2 := graph.Haversine(n2, n3)

	result, err := r.Route(n1.Lat, n1.Lon, models.RiskProfile{Week: 10, Level: "low"},
		[]models.Destination{destAt("clinic", n3)})
	require.NoError(t, err)

	assert.False(t, result.HighRisk)
	assert.Equal(t, "clinic", result.Destination.Name)
	assert.Len(t, result.Path, 2)
	assert.InDelta(t, l1+l2, result.DistanceMeters, 1e-6)
	assert.InDelta(t, (l1*1.0+l2*1.8)/(l1+l2), result.AvgSafetyFactor, 1e-9)
}

func TestRouteHighRiskSamePathDifferentFlag(t *testing.T) {
	// With a single possible path the geometry and the distance-weighted
	// average safety stay the same; only the flag flips.
	r := New(threeNodeLine(t))

	low, err := r.Route(n1.Lat, n1.Lon, models.RiskProfile{Week: 10, Level: "low"},
		[]models.Destination{destAt("clinic", n3)})
	require.NoError(t, err)
	high, err := r.Route(n1.Lat, n1.Lon, models.RiskProfile{Week: 32, Level: "low"},
		[]models.Destination{destAt("clinic", n3)})
	require.NoError(t, err)

	assert.False(t, low.HighRisk)
	assert.True(t, high.HighRisk, "week 32 crosses the high-risk threshold")
	assert.Equal(t, low.Path, high.Path)
	assert.Equal(t, low.AvgSafetyFactor, high.AvgSafetyFactor)
}

func TestRouteEmptyDestinations(t *testing.T) {
	r := New(threeNodeLine(t))
	_, err := r.Route(n1.Lat, n1.Lon, models.RiskProfile{}, nil)
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestRouteEmptyGraph(t *testing.T) {
	r := New(graph.Build(nil))
	_, err := r.Route(0, 0, models.RiskProfile{}, []models.Destination{destAt("clinic", n3)})
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestRouteDestinationAtStart(t *testing.T) {
	r := New(threeNodeLine(t))

	result, err := r.Route(n1.Lat, n1.Lon, models.RiskProfile{},
		[]models.Destination{destAt("here", n1)})
	require.NoError(t, err)
	assert.Zero(t, result.DistanceMeters)
	assert.Equal(t, 1.0, result.AvgSafetyFactor)
	assert.Empty(t, result.Path)
}

func TestRoutePrependsConnectorFromQueryPoint(t *testing.T) {
	r := New(threeNodeLine(t))

	// query point rounds away from n1, half a thousandth of a degree west
	startLat, startLon := 0.0, -0.0005
	lead := graph.Haversine(graph.Coord{Lon: startLon, Lat: startLat}, n1)
	l1 := graph.Haversine(n1, n2)
	l2 := graph.Haversine(n2, n3)

	result, err := r.Route(startLat, startLon, models.RiskProfile{},
		[]models.Destination{destAt("clinic", n3)})
	require.NoError(t, err)

	require.Len(t, result.Path, 3)
	assert.Equal(t, orb.Point{-0.0005, 0}, result.Path[0][0])
	assert.Equal(t, n1.Point(), result.Path[0][1])
	assert.InDelta(t, lead+l1+l2, result.DistanceMeters, 1e-6)

	// the connector is weighted at factor 1.0 in the average
	expectedAvg := (lead*1.0 + l1*1.0 + l2*1.8) / (lead + l1 + l2)
	assert.InDelta(t, expectedAvg, result.AvgSafetyFactor, 1e-9)
}

func TestRouteCheaperRoadBeatsNearerAir(t *testing.T) {
	// Destination "bumpy" is closer by straight line but only reachable over
	// a long dirt detour; "paved" is farther by air yet far cheaper by road.
	a := graph.Coord{Lon: 0, Lat: 0}
	d := graph.Coord{Lon: 0, Lat: 0.0005}
	b := graph.Coord{Lon: 0, Lat: -0.002}

	g := graph.Build([]graph.Segment{
		{Line: orb.LineString{{0, 0}, {0.01, 0}, {0.01, 0.0005}, {0, 0.0005}}, Surface: "dirt"},
		{Line: orb.LineString{{0, 0}, {0, -0.002}}, Surface: "asphalt"},
	})
	r := New(g)

	result, err := r.Route(a.Lat, a.Lon, models.RiskProfile{},
		[]models.Destination{destAt("bumpy", d), destAt("paved", b)})
	require.NoError(t, err)
	assert.Equal(t, "paved", result.Destination.Name)
}

func TestRouteEqualCostTieFirstWins(t *testing.T) {
	r := New(threeNodeLine(t))

	result, err := r.Route(n1.Lat, n1.Lon, models.RiskProfile{},
		[]models.Destination{destAt("first", n3), destAt("second", n3)})
	require.NoError(t, err)
	assert.Equal(t, "first", result.Destination.Name)
}

func TestRankByProximityTopK(t *testing.T) {
	dests := make([]models.Destination, 0, 8)
	for i := 7; i >= 0; i-- {
		dests = append(dests, destAt(string(rune('a'+i)), graph.Coord{Lon: float64(i) * 0.01, Lat: 0}))
	}

	ranked := rankByProximity(0, 0, dests)
	require.Len(t, ranked, maxCandidates)
	assert.Equal(t, "a", ranked[0].Name)
	assert.Equal(t, "e", ranked[4].Name)
}
