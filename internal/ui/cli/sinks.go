package cli

import (
	"sync"

	coreapp "aspectwatch/internal/core/app"
)

// updateSinks fans session updates out to every registered consumer.
type updateSinks struct {
	mu    sync.RWMutex
	sinks []func(coreapp.Update)
}

func (s *updateSinks) add(fn func(coreapp.Update)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks = append(s.sinks, fn)
}

func (s *updateSinks) dispatch(update coreapp.Update) {
	s.mu.RLock()
	sinks := append([]func(coreapp.Update){}, s.sinks...)
	s.mu.RUnlock()
	for _, fn := range sinks {
		fn(update)
	}
}
