// Package aspects classifies the angular relationships between pairs of bodies
// against an ordered rule table.
package aspects

import (
	"fmt"
	"math"
	"strings"

	"aspectwatch/internal/core/errors"
	"aspectwatch/internal/engine/sky"
)

// Trend is the qualitative label of an aspect. Labels outside the three
// known values are allowed and are counted only in totals.
type Trend string

const (
	Positive Trend = "Positive"
	Negative Trend = "Negative"
	Neutral  Trend = "Neutral"
)

// Trends lists the known trend labels.
var Trends = []Trend{Positive, Negative, Neutral}

// Known reports whether t is one of Positive, Negative or Neutral (case-sensitive).
func (t Trend) Known() bool {
	return t == Positive || t == Negative || t == Neutral
}

// Rule maps a target angle to a display name and a default trend.
type Rule struct {
	Angle float64
	Name  string
	Trend Trend
}

// RuleTable is an ordered list of rules. Order is match priority: the first
// rule whose window contains the observed separation wins.
type RuleTable []Rule

// DefaultRules returns a fresh copy of the built-in table, ascending 0..180.
func DefaultRules() RuleTable {
	return RuleTable{
		{Angle: 0, Name: "Conjunction", Trend: Positive},
		{Angle: 6, Name: "Aspect 6", Trend: Positive},
		{Angle: 9, Name: "Aspect 9", Trend: Positive},
		{Angle: 12, Name: "Aspect 12", Trend: Positive},
		{Angle: 15, Name: "Aspect 15", Trend: Negative},
		{Angle: 18, Name: "Aspect 18", Trend: Positive},
		{Angle: 20, Name: "Aspect 20", Trend: Negative},
		{Angle: 22.3, Name: "Aspect 22.3", Trend: Positive},
		{Angle: 24, Name: "Aspect 24", Trend: Positive},
		{Angle: 30, Name: "Semi-Sextile", Trend: Positive},
		{Angle: 35, Name: "Aspect 35", Trend: Positive},
		{Angle: 40, Name: "Novile", Trend: Positive},
		{Angle: 45, Name: "Semi-Square", Trend: Negative},
		{Angle: 60, Name: "Sextile", Trend: Positive},
		{Angle: 72, Name: "Quintile", Trend: Positive},
		{Angle: 90, Name: "Square", Trend: Negative},
		{Angle: 120, Name: "Trine", Trend: Negative},
		{Angle: 135, Name: "Sesquiquadrate", Trend: Positive},
		{Angle: 144, Name: "Biquintile", Trend: Negative},
		{Angle: 150, Name: "Quincunx", Trend: Positive},
		{Angle: 180, Name: "Opposition", Trend: Negative},
	}
}

// Angles returns the target angles in table order.
func (t RuleTable) Angles() []float64 {
	out := make([]float64, 0, len(t))
	for _, r := range t {
		out = append(out, r.Angle)
	}
	return out
}

func (t RuleTable) Lookup(angle float64) (Rule, bool) {
	for _, r := range t {
		if r.Angle == angle {
			return r, true
		}
	}
	return Rule{}, false
}

// SpecificPairRule overrides the trend for one unordered body pair at one
// exact target angle.
type SpecificPairRule struct {
	A     sky.Body
	B     sky.Body
	Angle float64
	Trend Trend
}

// Matches reports whether the rule applies to the pair {a,b} matched at angle.
func (r SpecificPairRule) Matches(a, b sky.Body, angle float64) bool {
	samePair := (r.A == a && r.B == b) || (r.A == b && r.B == a)
	return samePair && r.Angle == angle
}

// RangeRule overrides the trend when the observed separation lies in
// [Min, Max].
type RangeRule struct {
	Min   float64
	Max   float64
	Trend Trend
}

func (r RangeRule) Contains(separation float64) bool {
	return r.Min <= separation && separation <= r.Max
}

// RuleSet is the complete classification configuration.
type RuleSet struct {
	Table    RuleTable
	Orb      float64
	Specific []SpecificPairRule
	Ranges   []RangeRule
}

// DefaultOrb is the default tolerance in degrees.
const DefaultOrb = 3.0

// DefaultRuleSet returns the built-in table with the default orb and no overrides.
func DefaultRuleSet() RuleSet {
	return RuleSet{Table: DefaultRules(), Orb: DefaultOrb}
}

// Validate rejects configurations that would silently match nothing or
// match nonsensically.
func (s RuleSet) Validate() error {
	if math.IsNaN(s.Orb) || math.IsInf(s.Orb, 0) {
		return invalid("orb", "orb must be a finite number, got %v", s.Orb)
	}
	if s.Orb < 0 {
		return invalid("orb", "orb must not be negative, got %v", s.Orb)
	}

	seen := make(map[float64]int, len(s.Table))
	for i, r := range s.Table {
		field := fmt.Sprintf("rules[%d]", i)
		if math.IsNaN(r.Angle) || r.Angle < 0 || r.Angle > 180 {
			return invalid(field, "%s.angle must be within [0,180], got %v", field, r.Angle)
		}
		if prev, dup := seen[r.Angle]; dup {
			return invalid(field, "%s.angle %v duplicates rules[%d]", field, r.Angle, prev)
		}
		seen[r.Angle] = i
		if strings.TrimSpace(r.Name) == "" {
			return invalid(field, "%s.name must not be empty", field)
		}
		if strings.TrimSpace(string(r.Trend)) == "" {
			return invalid(field, "%s.trend must not be empty", field)
		}
	}

	for i, r := range s.Specific {
		field := fmt.Sprintf("specific[%d]", i)
		if !r.A.Known() {
			return invalid(field, "%s.a references unknown body %q", field, r.A)
		}
		if !r.B.Known() {
			return invalid(field, "%s.b references unknown body %q", field, r.B)
		}
		if r.A == r.B {
			return invalid(field, "%s must name two distinct bodies, got %s twice", field, r.A)
		}
		if math.IsNaN(r.Angle) || r.Angle < 0 || r.Angle > 180 {
			return invalid(field, "%s.angle must be within [0,180], got %v", field, r.Angle)
		}
		if strings.TrimSpace(string(r.Trend)) == "" {
			return invalid(field, "%s.trend must not be empty", field)
		}
	}

	for i, r := range s.Ranges {
		field := fmt.Sprintf("ranges[%d]", i)
		if math.IsNaN(r.Min) || math.IsNaN(r.Max) {
			return invalid(field, "%s bounds must be numbers", field)
		}
		if r.Min > r.Max {
			return invalid(field, "%s.min %v is greater than max %v", field, r.Min, r.Max)
		}
		if r.Min < 0 || r.Max > 180 {
			return invalid(field, "%s bounds must be within [0,180], got [%v,%v]", field, r.Min, r.Max)
		}
		if strings.TrimSpace(string(r.Trend)) == "" {
			return invalid(field, "%s.trend must not be empty", field)
		}
	}
	return nil
}

func invalid(field, format string, args ...interface{}) error {
	return errors.AddContext(errors.Newf(errors.CodeValidationError, format, args...), errors.CtxField, field)
}

// Overlap is a pair of target angles whose orb windows intersect. Such pairs
// make results depend on table order rather than on which angle is closer.
type Overlap struct {
	First  Rule
	Second Rule
}

// OverlappingWindows reports every pair of rules whose ±orb windows overlap,
// in table order.
func OverlappingWindows(table RuleTable, orb float64) []Overlap {
	var out []Overlap
	for i := 0; i < len(table); i++ {
		for j := i + 1; j < len(table); j++ {
			if math.Abs(table[i].Angle-table[j].Angle) <= 2*orb {
				out = append(out, Overlap{First: table[i], Second: table[j]})
			}
		}
	}
	return out
}

// UnreachableSpecific returns specific rules whose angle is absent from the
// table. They can never fire because the angle comparison is exact.
func UnreachableSpecific(table RuleTable, specific []SpecificPairRule) []SpecificPairRule {
	var out []SpecificPairRule
	for _, r := range specific {
		if _, ok := table.Lookup(r.Angle); !ok {
			out = append(out, r)
		}
	}
	return out
}
