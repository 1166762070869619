// Package ingest reads road geometries and destination records from GeoJSON
// sources and shapes them for the graph builder and router. Malformed records
// are skipped, never fatal: a partial dataset still yields a usable graph.
package ingest

import (
	"fmt"
	"os"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/kass/go-safe-route/pkg/graph"
	"github.com/kass/go-safe-route/pkg/models"
)

// ReadRoads parses a GeoJSON file of road features into builder segments.
func ReadRoads(path string) ([]graph.Segment, error) {
	fc, err := readCollection(path)
	if err != nil {
		return nil, err
	}
	return RoadSegments(fc), nil
}

// RoadSegments extracts builder segments from a feature collection.
// Only LineString features qualify; points, polygons and empty geometries
// are dropped.
func RoadSegments(fc *geojson.FeatureCollection) []graph.Segment {
	segments := make([]graph.Segment, 0, len(fc.Features))
	for _, f := range fc.Features {
		line, ok := f.Geometry.(orb.LineString)
		if !ok || len(line) < 2 {
			continue
		}
		segments = append(segments, graph.Segment{
			Line:    line,
			Surface: stringProp(f.Properties, "surface"),
			Highway: stringProp(f.Properties, "highway"),
		})
	}
	return segments
}

// ReadDestinations parses a GeoJSON file of facilities into destination
// records.
func ReadDestinations(path string) ([]models.Destination, error) {
	fc, err := readCollection(path)
	if err != nil {
		return nil, err
	}
	return DestinationRecords(fc), nil
}

// knownProps are lifted into typed Destination fields; everything else a
// feature carries lands in Extra.
var knownProps = map[string]bool{
	"name": true, "amenity": true, "addr_city": true, "addr_street": true,
	"emergency": true, "opening_hours": true, "beds": true, "operator": true,
}

// DestinationRecords extracts destination records from a feature collection.
// Point features use their coordinate directly; areal features are reduced
// to their centroid. Features with no geometry are skipped.
func DestinationRecords(fc *geojson.FeatureCollection) []models.Destination {
	dests := make([]models.Destination, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		var loc orb.Point
		if p, ok := f.Geometry.(orb.Point); ok {
			loc = p
		} else {
			loc, _ = planar.CentroidArea(f.Geometry)
		}

		d := models.Destination{
			Name:         stringProp(f.Properties, "name"),
			Amenity:      stringProp(f.Properties, "amenity"),
			City:         stringProp(f.Properties, "addr_city"),
			Street:       stringProp(f.Properties, "addr_street"),
			Emergency:    stringProp(f.Properties, "emergency"),
			OpeningHours: stringProp(f.Properties, "opening_hours"),
			Beds:         intProp(f.Properties, "beds"),
			Operator:     stringProp(f.Properties, "operator"),
			Location:     models.Location{Lat: loc.Lat(), Lon: loc.Lon()},
		}
		for k, v := range f.Properties {
			if knownProps[k] {
				continue
			}
			if s, ok := v.(string); ok && s != "" {
				if d.Extra == nil {
					d.Extra = make(map[string]string)
				}
				d.Extra[k] = s
			}
		}
		dests = append(dests, d)
	}
	return dests
}

// FilterBound keeps the features that touch the bounding box: a feature
// survives when at least one of its vertices lies inside b. Used to cut a
// country-scale road file down to the service area before building.
func FilterBound(fc *geojson.FeatureCollection, b orb.Bound) *geojson.FeatureCollection {
	out := geojson.NewFeatureCollection()
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		if anyVertexIn(f.Geometry, b) {
			out.Append(f)
		}
	}
	return out
}

// ClipSegments keeps the segments with at least one vertex inside b. Same
// touch rule as FilterBound, applied after feature extraction so sources
// that never pass through a feature collection can clip too.
func ClipSegments(segments []graph.Segment, b orb.Bound) []graph.Segment {
	out := make([]graph.Segment, 0, len(segments))
	for _, s := range segments {
		if anyVertexIn(s.Line, b) {
			out = append(out, s)
		}
	}
	return out
}

func anyVertexIn(g orb.Geometry, b orb.Bound) bool {
	switch geom := g.(type) {
	case orb.Point:
		return b.Contains(geom)
	case orb.LineString:
		for _, p := range geom {
			if b.Contains(p) {
				return true
			}
		}
		return false
	default:
		return b.Intersects(g.Bound())
	}
}

func readCollection(path string) (*geojson.FeatureCollection, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return fc, nil
}

func stringProp(p geojson.Properties, key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

func intProp(p geojson.Properties, key string) int {
	switch v := p[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}
