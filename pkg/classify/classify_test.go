package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFactorSurfaceRules(t *testing.T) {
	testCases := []struct {
		name     string
		surface  string
		highway  string
		expected float64
	}{
		{"asphalt", "asphalt", "", 1.0},
		{"concrete variant", "concrete:plates", "", 1.0},
		{"bitumen", "bitumen", "", 1.0},
		{"gravel", "gravel", "", 1.3},
		{"fine gravel", "fine_gravel", "", 1.3},
		{"compacted", "compacted", "", 1.3},
		{"dirt", "dirt", "", 1.8},
		{"earth", "earth", "", 1.8},
		{"mud", "mud", "", 1.8},
		{"sand", "sand", "", 1.8},
		{"surface beats highway fallback", "dirt", "primary", 1.8},
		{"case insensitive", "ASPHALT", "", 1.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Factor(tc.surface, tc.highway))
		})
	}
}

func TestFactorHighwayFallback(t *testing.T) {
	testCases := []struct {
		name     string
		highway  string
		expected float64
	}{
		{"primary", "primary", 1.0},
		{"secondary", "secondary", 1.0},
		{"trunk", "trunk", 1.0},
		{"motorway", "motorway", 1.0},
		{"residential", "residential", 1.1},
		{"tertiary", "tertiary", 1.1},
		{"track", "track", 1.5},
		{"path", "path", 1.5},
		{"unknown class", "footway", 1.2},
		{"empty tags", "", 1.2},
		{"case insensitive", "PRIMARY", 1.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Factor("", tc.highway))
			// fallback applies only when no surface rule matches
			assert.Equal(t, tc.expected, Factor("cobblestone", tc.highway))
		})
	}
}

func TestFactorAlwaysAtLeastOne(t *testing.T) {
	surfaces := []string{"", "asphalt", "gravel", "dirt", "cobblestone", "???"}
	highways := []string{"", "primary", "residential", "track", "service"}

	for _, s := range surfaces {
		for _, h := range highways {
			assert.GreaterOrEqual(t, Factor(s, h), 1.0, "surface=%q highway=%q", s, h)
		}
	}
}

func TestFactorIdempotent(t *testing.T) {
	first := Factor("gravel", "residential")
	second := Factor("gravel", "residential")
	assert.Equal(t, first, second)
}
