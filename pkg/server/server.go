// Package server is the thin HTTP glue over the routing engine. It parses
// query parameters, maps engine errors to status codes and serializes route
// results as GeoJSON; all routing logic lives in pkg/router.
package server

import (
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kass/go-safe-route/pkg/models"
	"github.com/kass/go-safe-route/pkg/router"
)

// Server exposes the routing engine over HTTP.
type Server struct {
	engine *router.Engine
	router *gin.Engine
}

// New wires the routes, CORS and request logging around the engine.
func New(engine *router.Engine) *Server {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())
	r.Use(requestLogger())

	s := &Server{engine: engine, router: r}
	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/api/route", s.handleRoute)
	return s
}

// Handler returns the underlying HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	log.Printf("server: listening on %s", addr)
	return s.router.Run(addr)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Header("X-Request-ID", id)
		start := time.Now()
		c.Next()
		log.Printf("server: %s %s %s -> %d (%v)",
			id[:8], c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	if !s.engine.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "initializing"})
		return
	}
	g := s.engine.Graph()
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"nodes":  g.NodeCount(),
		"edges":  g.EdgeCount(),
	})
}

// routeResponse is the wire form of a route result: GeoJSON geometry plus
// summary properties, directly renderable by GIS clients.
type routeResponse struct {
	Route           *geojson.Geometry  `json:"route"`
	DistanceMeters  float64            `json:"distance_meters"`
	AvgSafetyFactor float64            `json:"avg_safety_factor"`
	IsHighRisk      bool               `json:"is_high_risk"`
	Destination     models.Destination `json:"destination"`
}

func (s *Server) handleRoute(c *gin.Context) {
	start := time.Now()
	defer func() { routeDuration.Observe(time.Since(start).Seconds()) }()

	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	if errLat != nil || errLon != nil {
		routeRequests.WithLabelValues("bad_request").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon are required numbers"})
		return
	}
	week, _ := strconv.Atoi(c.DefaultQuery("week", "0"))
	profile := models.RiskProfile{Week: week, Level: c.DefaultQuery("risk", "low")}

	result, err := s.engine.Route(lat, lon, profile)
	switch {
	case errors.Is(err, router.ErrNotReady):
		routeRequests.WithLabelValues("not_ready").Inc()
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "routing engine not initialized"})
		return
	case errors.Is(err, router.ErrNoRoute):
		routeRequests.WithLabelValues("no_route").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": "no route found"})
		return
	case err != nil:
		routeRequests.WithLabelValues("error").Inc()
		log.Printf("server: route query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	routeRequests.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, routeResponse{
		Route:           geojson.NewGeometry(result.Path),
		DistanceMeters:  round2(result.DistanceMeters),
		AvgSafetyFactor: round2(result.AvgSafetyFactor),
		IsHighRisk:      result.HighRisk,
		Destination:     result.Destination,
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
