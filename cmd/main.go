package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"github.com/kass/go-safe-route/pkg/graph"
	"github.com/kass/go-safe-route/pkg/ingest"
	"github.com/kass/go-safe-route/pkg/models"
	"github.com/kass/go-safe-route/pkg/postgis"
	"github.com/kass/go-safe-route/pkg/router"
	"github.com/kass/go-safe-route/pkg/server"
)

var (
	cacheFile   string
	roadsFile   string
	roadSource  string
	clinicsFile string
	bboxSpec    string
	listenAddr  string
	queryLat    float64
	queryLon    float64
	queryWeek   int
	queryRisk   string

	pgHost     string
	pgPort     int
	pgUser     string
	pgPassword string
	pgDB       string
)

var rootCmd = &cobra.Command{
	Use:   "saferoute",
	Short: "Risk-aware routing over a road network",
	Long:  `Builds a weighted road graph from line geometry, classifies surface risk and routes travelers to the best reachable facility.`,
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the road graph and write the cache",
	Long:  `Read road geometry, build the connected weighted graph and persist it so later runs skip reconstruction.`,
	RunE:  runBuild,
}

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Run a single routing query",
	Long:  `Initialize the engine (cache or rebuild) and print the best route for one start point as GeoJSON.`,
	RunE:  runRoute,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the routing API over HTTP",
	Long:  `Initialize the engine and expose /api/route, /healthz and /metrics.`,
	RunE:  runServe,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import road geometry into PostGIS",
	Long:  `Read road GeoJSON and load it into the road_segments table, recreating the schema and spatial index.`,
	RunE:  runImport,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cacheFile, "cache", "c", envOr("SAFEROUTE_CACHE", "road_network.gob"), "Graph cache file path")
	rootCmd.PersistentFlags().StringVarP(&roadsFile, "roads", "r", envOr("SAFEROUTE_ROADS", "dataset/roads.geojson"), "Road geometry GeoJSON file")
	rootCmd.PersistentFlags().StringVar(&roadSource, "source", envOr("SAFEROUTE_SOURCE", "geojson"), "Road source: geojson or postgis")
	rootCmd.PersistentFlags().StringVar(&pgHost, "pg-host", envOr("SAFEROUTE_PG_HOST", "localhost"), "PostGIS host")
	rootCmd.PersistentFlags().IntVar(&pgPort, "pg-port", envIntOr("SAFEROUTE_PG_PORT", 5432), "PostGIS port")
	rootCmd.PersistentFlags().StringVar(&pgUser, "pg-user", envOr("SAFEROUTE_PG_USER", "postgres"), "PostGIS user")
	rootCmd.PersistentFlags().StringVar(&pgPassword, "pg-password", envOr("SAFEROUTE_PG_PASSWORD", "postgres"), "PostGIS password")
	rootCmd.PersistentFlags().StringVar(&pgDB, "pg-db", envOr("SAFEROUTE_PG_DB", "saferoute"), "PostGIS database name")

	buildCmd.Flags().StringVarP(&bboxSpec, "bbox", "b", "", "Clip roads to minLon,minLat,maxLon,maxLat before building")

	routeCmd.Flags().StringVarP(&clinicsFile, "clinics", "d", envOr("SAFEROUTE_CLINICS", "dataset/clinics.geojson"), "Destination GeoJSON file")
	routeCmd.Flags().Float64Var(&queryLat, "lat", 0, "Start latitude")
	routeCmd.Flags().Float64Var(&queryLon, "lon", 0, "Start longitude")
	routeCmd.Flags().IntVar(&queryWeek, "week", 0, "Gestational week")
	routeCmd.Flags().StringVar(&queryRisk, "risk", "low", "Risk level (low/high)")
	routeCmd.MarkFlagRequired("lat")
	routeCmd.MarkFlagRequired("lon")

	serveCmd.Flags().StringVarP(&clinicsFile, "clinics", "d", envOr("SAFEROUTE_CLINICS", "dataset/clinics.geojson"), "Destination GeoJSON file")
	serveCmd.Flags().StringVarP(&listenAddr, "addr", "a", envOr("SAFEROUTE_ADDR", ":8000"), "Listen address")

	rootCmd.AddCommand(buildCmd, routeCmd, serveCmd, importCmd)
}

func main() {
	godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func runBuild(cmd *cobra.Command, args []string) error {
	segments, err := loadSegments()
	if err != nil {
		return err
	}

	g := graph.Build(segments)
	if err := graph.SaveFile(cacheFile, g); err != nil {
		return fmt.Errorf("failed to save graph cache: %w", err)
	}

	fmt.Printf("Graph built: %d nodes, %d edges\n", g.NodeCount(), g.EdgeCount())
	fmt.Printf("Cache saved to %s\n", cacheFile)
	return nil
}

func runRoute(cmd *cobra.Command, args []string) error {
	engine, err := initEngine()
	if err != nil {
		return err
	}

	result, err := engine.Route(queryLat, queryLon, models.RiskProfile{Week: queryWeek, Level: queryRisk})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(map[string]interface{}{
		"route":             geojson.NewGeometry(result.Path),
		"distance_meters":   result.DistanceMeters,
		"avg_safety_factor": result.AvgSafetyFactor,
		"is_high_risk":      result.HighRisk,
		"destination":       result.Destination,
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	engine, err := initEngine()
	if err != nil {
		return err
	}
	return server.New(engine).Run(listenAddr)
}

func runImport(cmd *cobra.Command, args []string) error {
	segments, err := ingest.ReadRoads(roadsFile)
	if err != nil {
		return fmt.Errorf("failed to load roads: %w", err)
	}
	log.Printf("loaded %d road segments from %s", len(segments), roadsFile)

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitSchema(); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := store.BulkInsert(segments); err != nil {
		return fmt.Errorf("failed to insert segments: %w", err)
	}
	if err := store.CreateSpatialIndex(); err != nil {
		return fmt.Errorf("failed to create spatial index: %w", err)
	}

	count, err := store.Count()
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d segments into road_segments\n", count)
	return nil
}

func openStore() (*postgis.RoadStore, error) {
	store, err := postgis.Open(pgHost, pgUser, pgPassword, pgDB, pgPort)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostGIS: %w", err)
	}
	return store, nil
}

func initEngine() (*router.Engine, error) {
	destinations, err := ingest.ReadDestinations(clinicsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load destinations: %w", err)
	}
	log.Printf("loaded %d destinations from %s", len(destinations), clinicsFile)

	engine := router.NewEngine()
	if err := engine.Init(cacheFile, loadSegments, destinations); err != nil {
		return nil, err
	}
	return engine, nil
}

func loadSegments() ([]graph.Segment, error) {
	var bound *orb.Bound
	if bboxSpec != "" {
		b, err := parseBound(bboxSpec)
		if err != nil {
			return nil, err
		}
		bound = &b
	}

	if roadSource == "postgis" {
		store, err := openStore()
		if err != nil {
			return nil, err
		}
		defer store.Close()

		segments, err := store.LoadSegments(bound)
		if err != nil {
			return nil, fmt.Errorf("failed to load roads from PostGIS: %w", err)
		}
		log.Printf("loaded %d road segments from PostGIS", len(segments))
		return segments, nil
	}

	segments, err := ingest.ReadRoads(roadsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load roads: %w", err)
	}
	log.Printf("loaded %d road segments from %s", len(segments), roadsFile)

	if bound == nil {
		return segments, nil
	}
	clipped := ingest.ClipSegments(segments, *bound)
	log.Printf("bbox clip kept %d of %d segments", len(clipped), len(segments))
	return clipped, nil
}

func parseBound(spec string) (orb.Bound, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("invalid bbox %q, want minLon,minLat,maxLon,maxLat", spec)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("invalid bbox value %q: %w", p, err)
		}
		vals[i] = v
	}
	return orb.Bound{
		Min: orb.Point{vals[0], vals[1]},
		Max: orb.Point{vals[2], vals[3]},
	}, nil
}
