package router

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kass/go-safe-route/pkg/graph"
	"github.com/kass/go-safe-route/pkg/models"
)

func testSegments() ([]graph.Segment, error) {
	return []graph.Segment{
		{Line: orb.LineString{{0, 0}, {0, 0.001}}, Surface: "asphalt"},
		{Line: orb.LineString{{0, 0.001}, {0, 0.002}}, Surface: "dirt"},
	}, nil
}

func TestEngineNotReady(t *testing.T) {
	engine := NewEngine()
	assert.False(t, engine.Ready())
	assert.Nil(t, engine.Graph())

	_, err := engine.Route(0, 0, models.RiskProfile{})
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestEngineInitBuildsAndCaches(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "graph.gob")
	engine := NewEngine()

	err := engine.Init(cachePath, testSegments, []models.Destination{destAt("clinic", n3)})
	require.NoError(t, err)
	assert.True(t, engine.Ready())
	assert.Equal(t, 3, engine.Graph().NodeCount())

	_, err = os.Stat(cachePath)
	assert.NoError(t, err, "init must write the cache file")

	result, err := engine.Route(0, 0, models.RiskProfile{Week: 30})
	require.NoError(t, err)
	assert.True(t, result.HighRisk)
}

func TestEngineInitPrefersCache(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "graph.gob")

	first := NewEngine()
	require.NoError(t, first.Init(cachePath, testSegments, nil))

	// a second engine must not need the segment source at all
	second := NewEngine()
	failing := func() ([]graph.Segment, error) {
		return nil, errors.New("segment source must not be consulted")
	}
	require.NoError(t, second.Init(cachePath, failing, []models.Destination{destAt("clinic", n3)}))
	assert.Equal(t, first.Graph().NodeCount(), second.Graph().NodeCount())
	assert.Equal(t, first.Graph().EdgeCount(), second.Graph().EdgeCount())
}

func TestEngineInitRebuildsOnCorruptCache(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "graph.gob")
	require.NoError(t, os.WriteFile(cachePath, []byte("junk"), 0o644))

	engine := NewEngine()
	require.NoError(t, engine.Init(cachePath, testSegments, nil))
	assert.Equal(t, 3, engine.Graph().NodeCount())

	// the rebuilt graph replaced the corrupt file
	g, err := graph.LoadFile(cachePath)
	require.NoError(t, err)
	assert.Equal(t, 3, g.NodeCount())
}

func TestEngineInitWithoutCachePath(t *testing.T) {
	engine := NewEngine()
	require.NoError(t, engine.Init("", testSegments, nil))
	assert.True(t, engine.Ready())
}

func TestEngineInitSegmentSourceFailure(t *testing.T) {
	engine := NewEngine()
	failing := func() ([]graph.Segment, error) { return nil, errors.New("boom") }
	err := engine.Init("", failing, nil)
	assert.Error(t, err)
	assert.False(t, engine.Ready())
}

func TestEnginePublishSwapsState(t *testing.T) {
	engine := NewEngine()
	require.NoError(t, engine.Init("", testSegments, []models.Destination{destAt("clinic", n3)}))

	// publish a different graph; queries see the new state immediately
	replacement := graph.Build([]graph.Segment{
		{Line: orb.LineString{{1, 1}, {1, 1.001}}, Surface: "asphalt"},
	})
	engine.Publish(replacement, []models.Destination{destAt("other", graph.Coord{Lon: 1, Lat: 1.001})})

	result, err := engine.Route(1, 1, models.RiskProfile{})
	require.NoError(t, err)
	assert.Equal(t, "other", result.Destination.Name)
}
