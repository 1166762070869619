package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRiskProfileHighRisk(t *testing.T) {
	testCases := []struct {
		name     string
		profile  RiskProfile
		expected bool
	}{
		{"low level early week", RiskProfile{Week: 10, Level: "low"}, false},
		{"explicit high level", RiskProfile{Week: 10, Level: "high"}, true},
		{"high level uppercase", RiskProfile{Week: 10, Level: "HIGH"}, true},
		{"week at threshold", RiskProfile{Week: 28, Level: "low"}, true},
		{"week past threshold", RiskProfile{Week: 36, Level: "low"}, true},
		{"week below threshold", RiskProfile{Week: 27, Level: "low"}, false},
		{"empty level", RiskProfile{Week: 0, Level: ""}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.profile.HighRisk())
		})
	}
}
