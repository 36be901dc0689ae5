package ports

import (
	"time"

	"aspectwatch/internal/data/history"
)

// HistoryStore abstracts the optional snapshot journal.
type HistoryStore interface {
	SaveSnapshot(sessionID string, snapshot history.Snapshot) error
	LoadSnapshots(sessionID string, since time.Time) ([]history.Snapshot, error)
}

// Clock supplies the current time so sessions can be driven deterministically.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)
