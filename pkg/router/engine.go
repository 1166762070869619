package router

import (
	"errors"
	"log"
	"sync/atomic"

	"github.com/kass/go-safe-route/pkg/graph"
	"github.com/kass/go-safe-route/pkg/models"
)

// engineState bundles one published graph with its router and destination
// set. A state is immutable after publication; replacing it swaps the whole
// bundle at once so no query observes a half-updated engine.
type engineState struct {
	graph        *graph.Graph
	router       *Router
	destinations []models.Destination
}

// Engine owns the road graph for the life of the process and serves
// concurrent routing queries against it. It starts empty; queries before
// Init or Publish fail with ErrNotReady. Rebuilds go through Publish, which
// swaps the active state atomically while live queries finish against the
// old one.
type Engine struct {
	state atomic.Pointer[engineState]
}

// NewEngine returns an engine with no graph published yet.
func NewEngine() *Engine {
	return &Engine{}
}

// Init performs the one-time blocking startup: load the cached graph if
// possible, otherwise build from segments and write a fresh cache. A cache
// write failure is logged and ignored; the in-memory graph still serves.
// An empty cachePath disables caching.
func (e *Engine) Init(cachePath string, segments func() ([]graph.Segment, error), destinations []models.Destination) error {
	g, err := e.loadOrBuild(cachePath, segments)
	if err != nil {
		return err
	}
	e.Publish(g, destinations)
	return nil
}

func (e *Engine) loadOrBuild(cachePath string, segments func() ([]graph.Segment, error)) (*graph.Graph, error) {
	if cachePath != "" {
		g, err := graph.LoadFile(cachePath)
		if err == nil {
			log.Printf("engine: loaded cached graph from %s (%d nodes, %d edges)",
				cachePath, g.NodeCount(), g.EdgeCount())
			return g, nil
		}
		switch {
		case errors.Is(err, graph.ErrCacheMiss):
			log.Printf("engine: no graph cache at %s, building", cachePath)
		case errors.Is(err, graph.ErrCacheCorrupt):
			log.Printf("engine: unusable graph cache at %s (%v), rebuilding", cachePath, err)
		default:
			log.Printf("engine: cache load failed (%v), rebuilding", err)
		}
	}

	segs, err := segments()
	if err != nil {
		return nil, err
	}
	g := graph.Build(segs)

	if cachePath != "" {
		if err := graph.SaveFile(cachePath, g); err != nil {
			log.Printf("engine: cache save failed: %v", err)
		} else {
			log.Printf("engine: saved graph cache to %s", cachePath)
		}
	}
	return g, nil
}

// Publish atomically replaces the active graph and destination set.
func (e *Engine) Publish(g *graph.Graph, destinations []models.Destination) {
	e.state.Store(&engineState{
		graph:        g,
		router:       New(g),
		destinations: destinations,
	})
}

// Ready reports whether a graph has been published.
func (e *Engine) Ready() bool {
	return e.state.Load() != nil
}

// Graph returns the active graph, or nil before initialization.
func (e *Engine) Graph() *graph.Graph {
	if s := e.state.Load(); s != nil {
		return s.graph
	}
	return nil
}

// Route runs one query against the active graph and the engine's destination
// set. Returns ErrNotReady before initialization.
func (e *Engine) Route(startLat, startLon float64, profile models.RiskProfile) (*RouteResult, error) {
	s := e.state.Load()
	if s == nil {
		return nil, ErrNotReady
	}
	return s.router.Route(startLat, startLon, profile, s.destinations)
}
