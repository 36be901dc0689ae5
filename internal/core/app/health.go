package app

import (
	"context"
	"fmt"
	"time"

	"aspectwatch/internal/shared/observability"
	"aspectwatch/internal/shared/util"
)

type HealthService struct {
	session *Session
}

var _ observability.HealthChecker = (*HealthService)(nil)

func NewHealthService(session *Session) *HealthService {
	return &HealthService{session: session}
}

func (h *HealthService) Check(ctx context.Context) observability.HealthStatus {
	status := observability.HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	s := h.session
	s.mu.Lock()
	defer s.mu.Unlock()

	status.Components["session"] = s.id
	status.Components["provider"] = s.current.cfg.Provider.Kind

	if s.snapshot == nil {
		status.Status = "starting"
		status.Components["snapshot"] = "missing"
	} else {
		status.Components["snapshot"] = fmt.Sprintf("ok (%d aspects, computed %s)",
			len(s.snapshot.Aspects), s.lastRun.Format(time.RFC3339))
	}

	if s.lastErr != nil {
		status.Status = "degraded"
		status.Components["last_trigger"] = s.lastErr.Error()
	} else {
		status.Components["last_trigger"] = "ok"
	}

	if s.history != nil {
		status.Components["history"] = "enabled"
	} else {
		status.Components["history"] = "disabled"
	}
	mem := util.ReadMemoryUsage()
	status.Components["heap_mb"] = fmt.Sprintf("%d", mem.HeapMB)
	status.Components["gc_cycles"] = fmt.Sprintf("%d", mem.GCCycles)

	return status
}
