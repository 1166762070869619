// Package classify maps road surface and highway tags to a safety factor.
//
// The factor is a multiplier on physical distance: 1.0 is an ideal surface,
// larger values mark rougher roads that the router should avoid, especially
// for high-risk travelers.
package classify

import "strings"

// surfaceRules are checked in order against the lowercased surface tag;
// the first rule with a matching substring wins.
var surfaceRules = []struct {
	factor float64
	tokens []string
}{
	{1.0, []string{"paved", "asphalt", "concrete", "bitumen"}},
	{1.3, []string{"gravel", "unpaved", "compacted", "fine_gravel"}},
	{1.8, []string{"dirt", "earth", "ground", "mud", "sand"}},
}

// Factor returns the safety factor for a road segment. It always returns a
// value >= 1.0: if the surface tag matches no rule, the highway class decides,
// and unknown classes fall back to a neutral default.
func Factor(surface, highway string) float64 {
	s := strings.ToLower(surface)
	for _, rule := range surfaceRules {
		for _, token := range rule.tokens {
			if strings.Contains(s, token) {
				return rule.factor
			}
		}
	}

	switch strings.ToLower(highway) {
	case "primary", "secondary", "trunk", "motorway":
		return 1.0
	case "residential", "tertiary":
		return 1.1
	case "track", "path":
		return 1.5
	}

	return 1.2
}
