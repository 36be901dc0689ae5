package aspects

import (
	"strings"

	"aspectwatch/internal/engine/sky"

	"github.com/gobwas/glob"
)

// AllBodies is the filter value that disables body filtering.
const AllBodies = "All"

// BodyFilter selects aspects by participant. The pattern is a body name or a
// glob such as "Ra*" or "{Sun,Moon}", compared case-insensitively.
type BodyFilter struct {
	pattern string
	g       glob.Glob
}

func NewBodyFilter(pattern string) (*BodyFilter, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" || strings.EqualFold(pattern, AllBodies) {
		return &BodyFilter{pattern: AllBodies}, nil
	}
	g, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return nil, invalid("filter", "invalid body filter %q: %v", pattern, err)
	}
	return &BodyFilter{pattern: pattern, g: g}, nil
}

func (f *BodyFilter) Pattern() string { return f.pattern }

// MatchBody reports whether body passes the filter.
func (f *BodyFilter) MatchBody(body sky.Body) bool {
	if f == nil || f.g == nil {
		return true
	}
	return f.g.Match(strings.ToLower(string(body)))
}

// Apply returns the aspects touching at least one matching body, preserving order.
func (f *BodyFilter) Apply(list []Aspect) []Aspect {
	if f == nil || f.g == nil {
		return list
	}
	out := make([]Aspect, 0, len(list))
	for _, a := range list {
		if f.MatchBody(a.A) || f.MatchBody(a.B) {
			out = append(out, a)
		}
	}
	return out
}

// FilterByBody is a convenience wrapper around NewBodyFilter and Apply.
func FilterByBody(list []Aspect, pattern string) ([]Aspect, error) {
	f, err := NewBodyFilter(pattern)
	if err != nil {
		return nil, err
	}
	return f.Apply(list), nil
}

// DefaultCloseThreshold is the deviation below which an aspect is reported as close.
const DefaultCloseThreshold = 1.0

// Close returns aspects whose deviation is strictly below threshold.
func Close(list []Aspect, threshold float64) []Aspect {
	var out []Aspect
	for _, a := range list {
		if a.Deviation < threshold {
			out = append(out, a)
		}
	}
	return out
}
