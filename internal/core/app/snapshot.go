package app

import (
	"fmt"
	"strings"
	"time"

	"aspectwatch/internal/engine/aspects"
	"aspectwatch/internal/engine/sky"
	"aspectwatch/internal/engine/summary"
)

// Snapshot is the immutable result of one recomputation. A new value replaces
// the previous one wholesale; callers must not modify the slices.
type Snapshot struct {
	Moment     time.Time
	JulianDay  float64
	Ayanamsa   float64
	Orb        float64
	Positions  sky.Positions
	Aspects    []aspects.Aspect
	Filter     string
	Filtered   []aspects.Aspect
	Summary    summary.Summary
	Close      []aspects.Aspect
	Overlaps   []aspects.Overlap
	ComputedAt time.Time
}

// Totals counts the unfiltered aspects by trend.
func (s *Snapshot) Totals() summary.Counts {
	if s == nil {
		return summary.Counts{}
	}
	return summary.Totals(s.Aspects)
}

// withFilter returns a copy of s narrowed to filter. Positions, aspects and
// summary are shared since they are never mutated.
func (s *Snapshot) withFilter(filter *aspects.BodyFilter, closeThreshold float64) *Snapshot {
	next := *s
	next.Filter = filter.Pattern()
	next.Filtered = filter.Apply(s.Aspects)
	next.Close = aspects.Close(next.Filtered, closeThreshold)
	return &next
}

// StatusLine renders the one-line summary shown under the aspect list.
func (s *Snapshot) StatusLine() string {
	if s == nil {
		return "no snapshot yet"
	}
	t := s.Totals()
	var b strings.Builder
	fmt.Fprintf(&b, "%s UTC: %d aspects (%d positive, %d negative, %d neutral)",
		s.Moment.Format("2006-01-02 15:04"), t.Total, t.Positive, t.Negative, t.Neutral)
	if s.Filter != "" && s.Filter != aspects.AllBodies {
		fmt.Fprintf(&b, ", %d shown for %s", len(s.Filtered), s.Filter)
	}
	if n := len(s.Close); n > 0 {
		fmt.Fprintf(&b, " | Alert: %d close aspects found!", n)
	}
	return b.String()
}
