package models

import "strings"

// HighRiskWeek is the gestational week at or beyond which a query is
// treated as high risk regardless of the declared risk level.
const HighRiskWeek = 28

// Location represents a geographic location with latitude and longitude
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Destination is a candidate routing target (clinic, hospital, health post).
// Known attributes are typed; anything else the data source carries is kept
// in Extra.
type Destination struct {
	Name         string            `json:"name"`
	Amenity      string            `json:"amenity,omitempty"`
	City         string            `json:"addr_city,omitempty"`
	Street       string            `json:"addr_street,omitempty"`
	Emergency    string            `json:"emergency,omitempty"`
	OpeningHours string            `json:"opening_hours,omitempty"`
	Beds         int               `json:"beds,omitempty"`
	Operator     string            `json:"operator,omitempty"`
	Location     Location          `json:"location"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// RiskProfile describes the traveler's condition for a single query.
type RiskProfile struct {
	Week  int    `json:"week"`
	Level string `json:"risk"`
}

// HighRisk reports whether the profile selects the amplified safety penalty:
// an explicit "high" level, or a gestational week at or past HighRiskWeek.
func (p RiskProfile) HighRisk() bool {
	return strings.EqualFold(p.Level, "high") || p.Week >= HighRiskWeek
}
