package history

import "time"

const SchemaVersion = 2

// Snapshot is one journal row: the headline numbers of a single recomputation.
// Positions and rules are not stored.
type Snapshot struct {
	SessionID     string
	SchemaVersion int
	Timestamp     time.Time
	Moment        time.Time
	JulianDay     float64
	Ayanamsa      float64
	Orb           float64
	Filter        string
	AspectCount   int
	PositiveCount int
	NegativeCount int
	NeutralCount  int
	CloseCount    int
}
