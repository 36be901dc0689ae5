package formats

import (
	"time"

	"aspectwatch/internal/engine/aspects"
	"aspectwatch/internal/engine/sky"
	"aspectwatch/internal/engine/summary"
)

// ReportData is everything a report renders for one snapshot.
type ReportData struct {
	Moment    time.Time
	JulianDay float64
	Ayanamsa  float64
	Orb       float64
	Filter    string
	Positions sky.Positions
	Aspects   []aspects.Aspect
	Summary   []summary.Row
	Close     []aspects.Aspect
}
