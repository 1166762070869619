// Package postgis stores road segments in PostGIS as an alternative to flat
// GeoJSON files, so large networks can be clipped server-side before the
// graph is built.
package postgis

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/kass/go-safe-route/pkg/graph"
)

type RoadStore struct {
	db *sql.DB
}

// Open creates a new PostGIS connection
func Open(host, user, password, dbname string, port int) (*RoadStore, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &RoadStore{db: db}, nil
}

// InitSchema creates the road segment table
func (s *RoadStore) InitSchema() error {
	queries := []string{
		`CREATE EXTENSION IF NOT EXISTS postgis;`,

		`DROP TABLE IF EXISTS road_segments;`,

		`CREATE TABLE road_segments (
			id SERIAL PRIMARY KEY,
			surface TEXT NOT NULL DEFAULT '',
			highway TEXT NOT NULL DEFAULT '',
			geom GEOMETRY(LINESTRING, 4326) NOT NULL
		);`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}

	return nil
}

// CreateSpatialIndex creates a GIST index on the geometry column
func (s *RoadStore) CreateSpatialIndex() error {
	query := `CREATE INDEX idx_road_segments_geom ON road_segments USING GIST(geom);`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create spatial index: %w", err)
	}

	if _, err := s.db.Exec("ANALYZE road_segments;"); err != nil {
		return fmt.Errorf("failed to analyze table: %w", err)
	}

	return nil
}

// BulkInsert inserts road segments in batches for better performance
func (s *RoadStore) BulkInsert(segments []graph.Segment) error {
	const batchSize = 10000

	stmt, err := s.db.Prepare(`
		INSERT INTO road_segments (surface, highway, geom)
		VALUES ($1, $2, ST_GeomFromText($3, 4326))
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txStmt := tx.Stmt(stmt)

	for i, seg := range segments {
		_, err := txStmt.Exec(seg.Surface, seg.Highway, wkt.MarshalString(seg.Line))
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert segment %d: %w", i, err)
		}

		if (i+1)%batchSize == 0 {
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("failed to commit batch: %w", err)
			}

			tx, err = s.db.Begin()
			if err != nil {
				return fmt.Errorf("failed to begin new transaction: %w", err)
			}
			txStmt = tx.Stmt(stmt)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit final batch: %w", err)
	}

	return nil
}

// LoadSegments reads back road segments, optionally clipped to a bounding
// box. Rows whose geometry fails to decode as a LineString are skipped.
func (s *RoadStore) LoadSegments(bound *orb.Bound) ([]graph.Segment, error) {
	query := `SELECT surface, highway, ST_AsText(geom) FROM road_segments`
	var args []interface{}
	if bound != nil {
		query += ` WHERE geom && ST_MakeEnvelope($1, $2, $3, $4, 4326)`
		args = append(args, bound.Min.Lon(), bound.Min.Lat(), bound.Max.Lon(), bound.Max.Lat())
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var segments []graph.Segment
	for rows.Next() {
		var surface, highway, geomText string
		if err := rows.Scan(&surface, &highway, &geomText); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		seg, ok := decodeRow(surface, highway, geomText)
		if !ok {
			continue
		}
		segments = append(segments, seg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return segments, nil
}

// decodeRow turns one result row into a builder segment. Rows whose geometry
// is not a usable LineString report ok=false and are skipped by the caller.
func decodeRow(surface, highway, geomText string) (graph.Segment, bool) {
	geom, err := wkt.Unmarshal(geomText)
	if err != nil {
		return graph.Segment{}, false
	}
	line, ok := geom.(orb.LineString)
	if !ok || len(line) < 2 {
		return graph.Segment{}, false
	}
	return graph.Segment{Line: line, Surface: surface, Highway: highway}, true
}

// Count returns the number of stored segments
func (s *RoadStore) Count() (int64, error) {
	var count int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM road_segments").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count segments: %w", err)
	}
	return count, nil
}

// Close closes the database connection
func (s *RoadStore) Close() error {
	return s.db.Close()
}
