package graph

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
)

// cacheVersion tags the on-disk format. A mismatch is treated as a corrupt
// cache so callers rebuild instead of guessing at old layouts.
const cacheVersion = 1

var (
	// ErrCacheMiss means no cache file exists at the given path.
	ErrCacheMiss = errors.New("graph cache miss")

	// ErrCacheCorrupt means the cache file exists but cannot be used.
	ErrCacheCorrupt = errors.New("graph cache corrupt")
)

type cacheEdge struct {
	From   Coord
	To     Coord
	Length float64
	Safety float64
}

type cacheRecord struct {
	Version int
	Nodes   []Coord
	Edges   []cacheEdge
}

// SaveFile persists the graph so later runs can skip reconstruction.
// The format round-trips exactly: node set, edge set and per-edge attributes
// survive unchanged.
func SaveFile(path string, g *Graph) error {
	record := cacheRecord{
		Version: cacheVersion,
		Nodes:   g.Nodes(),
		Edges:   make([]cacheEdge, 0, g.EdgeCount()),
	}
	for _, u := range record.Nodes {
		for v, e := range g.adj[u] {
			// each undirected edge is written once
			if u.Lon < v.Lon || (u.Lon == v.Lon && u.Lat < v.Lat) {
				record.Edges = append(record.Edges, cacheEdge{From: u, To: v, Length: e.Length, Safety: e.Safety})
			}
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(record); err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}
	return nil
}

// LoadFile restores a graph saved by SaveFile. It returns ErrCacheMiss when
// the file is absent and ErrCacheCorrupt when it cannot be decoded or was
// written with a different format version.
func LoadFile(path string) (*Graph, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to open cache file: %w", err)
	}
	defer file.Close()

	var record cacheRecord
	if err := gob.NewDecoder(file).Decode(&record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}
	if record.Version != cacheVersion {
		return nil, fmt.Errorf("%w: format version %d, want %d", ErrCacheCorrupt, record.Version, cacheVersion)
	}

	g := newGraph()
	for _, c := range record.Nodes {
		if g.adj[c] == nil {
			g.adj[c] = make(map[Coord]Edge)
		}
	}
	for _, e := range record.Edges {
		g.addEdge(e.From, e.To, Edge{Length: e.Length, Safety: e.Safety})
	}
	return g, nil
}
