package history

import (
	"time"
)

// Adapter bridges Store to the core HistoryStore port.
type Adapter struct {
	store *Store
}

func NewAdapter(store *Store) *Adapter {
	return &Adapter{store: store}
}

func (a *Adapter) SaveSnapshot(sessionID string, snapshot Snapshot) error {
	return a.store.SaveSnapshot(sessionID, snapshot)
}

func (a *Adapter) LoadSnapshots(sessionID string, since time.Time) ([]Snapshot, error) {
	return a.store.LoadSnapshots(sessionID, since)
}

func (a *Adapter) Close() error {
	return a.store.Close()
}
