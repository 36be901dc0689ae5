package aspects

import (
	"math"

	"aspectwatch/internal/engine/sky"
)

// Aspect is one classified body pair.
type Aspect struct {
	A          sky.Body
	B          sky.Body
	Separation float64 // observed shortest arc, [0,180]
	Angle      float64 // matched target angle
	Name       string
	Trend      Trend
	Deviation  float64 // |Separation - Angle|
}

// Involves reports whether body is one of the aspect's participants.
func (a Aspect) Involves(body sky.Body) bool {
	return a.A == body || a.B == body
}

// Separation returns the shortest arc between two longitudes, in [0,180].
func Separation(lonA, lonB float64) float64 {
	diff := math.Abs(lonA - lonB)
	if diff > 180 {
		diff = 360 - diff
	}
	return diff
}

// Match pairs every body in positions with every later body, in positions
// order, and classifies each pair against set. A pair matches the first rule
// in table order whose target angle is within the orb; it is not a
// closest-angle search, so overlapping windows resolve by table order.
func Match(positions sky.Positions, set RuleSet) ([]Aspect, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}

	var found []Aspect
	for i := 0; i < len(positions); i++ {
		for j := i + 1; j < len(positions); j++ {
			a, b := positions[i], positions[j]
			if a.Body == b.Body {
				continue
			}
			diff := Separation(a.Longitude, b.Longitude)

			rule, ok := firstMatch(set.Table, diff, set.Orb)
			if !ok {
				continue
			}
			found = append(found, Aspect{
				A:          a.Body,
				B:          b.Body,
				Separation: diff,
				Angle:      rule.Angle,
				Name:       rule.Name,
				Trend:      resolveTrend(set, a.Body, b.Body, rule, diff),
				Deviation:  math.Abs(diff - rule.Angle),
			})
		}
	}
	return found, nil
}

func firstMatch(table RuleTable, diff, orb float64) (Rule, bool) {
	for _, r := range table {
		if math.Abs(diff-r.Angle) <= orb {
			return r, true
		}
	}
	return Rule{}, false
}

// resolveTrend applies the override chain: specific pair, then range, then
// the table default.
func resolveTrend(set RuleSet, a, b sky.Body, rule Rule, diff float64) Trend {
	if t, ok := specificTrend(set.Specific, a, b, rule.Angle); ok {
		return t
	}
	if t, ok := rangeTrend(set.Ranges, diff); ok {
		return t
	}
	return rule.Trend
}

func specificTrend(rules []SpecificPairRule, a, b sky.Body, angle float64) (Trend, bool) {
	for _, r := range rules {
		if r.Matches(a, b, angle) {
			return r.Trend, true
		}
	}
	return "", false
}

func rangeTrend(rules []RangeRule, diff float64) (Trend, bool) {
	for _, r := range rules {
		if r.Contains(diff) {
			return r.Trend, true
		}
	}
	return "", false
}
