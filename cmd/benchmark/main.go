package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kass/go-safe-route/pkg/graph"
	"github.com/kass/go-safe-route/pkg/ingest"
	"github.com/kass/go-safe-route/pkg/models"
	"github.com/kass/go-safe-route/pkg/router"
)

type BenchmarkResult struct {
	TotalQueries  int
	Routed        int64
	NoRoute       int64
	TotalDuration time.Duration
	AvgDuration   time.Duration
	QueriesPerSec float64
	MinDuration   time.Duration
	MaxDuration   time.Duration
}

func main() {
	var (
		cacheFile   = flag.String("c", "road_network.gob", "Graph cache file path")
		clinicsFile = flag.String("d", "dataset/clinics.geojson", "Destination GeoJSON file")
		numQueries  = flag.Int("n", 1000, "Number of queries to run")
		workers     = flag.Int("w", runtime.NumCPU(), "Number of concurrent workers")
		highRatio   = flag.Float64("high", 0.5, "Fraction of queries using a high-risk profile")
		seed        = flag.Int64("seed", 1, "Random seed for query points")
	)
	flag.Parse()

	log.Printf("Loading graph cache from %s...", *cacheFile)
	g, err := graph.LoadFile(*cacheFile)
	if err != nil {
		log.Fatalf("Failed to load graph cache: %v", err)
	}
	log.Printf("Graph loaded with %d nodes, %d edges", g.NodeCount(), g.EdgeCount())

	destinations, err := ingest.ReadDestinations(*clinicsFile)
	if err != nil {
		log.Fatalf("Failed to load destinations: %v", err)
	}
	log.Printf("Loaded %d destinations", len(destinations))

	engine := router.NewEngine()
	engine.Publish(g, destinations)

	log.Printf("Running %d route queries with %d workers...", *numQueries, *workers)
	result := benchmarkRoutes(engine, g, *numQueries, *workers, *highRatio, *seed)

	fmt.Println("\n=== Benchmark Results ===")
	fmt.Printf("Total Queries: %d\n", result.TotalQueries)
	fmt.Printf("Routed: %d\n", result.Routed)
	fmt.Printf("No Route: %d\n", result.NoRoute)
	fmt.Printf("Total Duration: %v\n", result.TotalDuration)
	fmt.Printf("Average Duration: %v\n", result.AvgDuration)
	fmt.Printf("Queries/Second: %.2f\n", result.QueriesPerSec)
	fmt.Printf("Min Duration: %v\n", result.MinDuration)
	fmt.Printf("Max Duration: %v\n", result.MaxDuration)
	fmt.Printf("Workers Used: %d\n", *workers)
	fmt.Printf("CPU Cores: %d\n", runtime.NumCPU())
}

// benchmarkRoutes fires random queries from within the graph's bounding box.
// The engine is shared read-only state, so workers need no coordination
// beyond the result counters.
func benchmarkRoutes(engine *router.Engine, g *graph.Graph, numQueries, workers int, highRatio float64, seed int64) BenchmarkResult {
	bound := g.Bound()

	type query struct {
		lat, lon float64
		profile  models.RiskProfile
	}
	queries := make([]query, numQueries)
	rng := rand.New(rand.NewSource(seed))
	for i := range queries {
		q := query{
			lat: bound.Min.Lat() + rng.Float64()*(bound.Max.Lat()-bound.Min.Lat()),
			lon: bound.Min.Lon() + rng.Float64()*(bound.Max.Lon()-bound.Min.Lon()),
		}
		if rng.Float64() < highRatio {
			q.profile = models.RiskProfile{Week: 36, Level: "high"}
		} else {
			q.profile = models.RiskProfile{Week: 12, Level: "low"}
		}
		queries[i] = q
	}

	var (
		routed      atomic.Int64
		noRoute     atomic.Int64
		minDuration = time.Hour
		maxDuration time.Duration
		mu          sync.Mutex
		wg          sync.WaitGroup
	)

	next := make(chan query, workers)
	start := time.Now()

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for q := range next {
				qStart := time.Now()
				_, err := engine.Route(q.lat, q.lon, q.profile)
				elapsed := time.Since(qStart)

				if err != nil {
					noRoute.Add(1)
				} else {
					routed.Add(1)
				}

				mu.Lock()
				if elapsed < minDuration {
					minDuration = elapsed
				}
				if elapsed > maxDuration {
					maxDuration = elapsed
				}
				mu.Unlock()
			}
		}()
	}

	for _, q := range queries {
		next <- q
	}
	close(next)
	wg.Wait()

	total := time.Since(start)
	return BenchmarkResult{
		TotalQueries:  numQueries,
		Routed:        routed.Load(),
		NoRoute:       noRoute.Load(),
		TotalDuration: total,
		AvgDuration:   total / time.Duration(numQueries),
		QueriesPerSec: float64(numQueries) / total.Seconds(),
		MinDuration:   minDuration,
		MaxDuration:   maxDuration,
	}
}
