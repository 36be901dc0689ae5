package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthStatus is the JSON body served on /health.
type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

// HealthChecker reports the current health of the session.
type HealthChecker interface {
	Check(ctx context.Context) HealthStatus
}

type Server struct {
	addr   string
	health HealthChecker
	server *http.Server
	bound  string
}

func NewServer(addr string, health HealthChecker) *Server {
	return &Server{
		addr:   addr,
		health: health,
	}
}

// Handler returns the mux serving /metrics and /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := HealthStatus{Status: "up", Timestamp: time.Now().UTC(), Components: map[string]string{}}
		if s.health != nil {
			status = s.health.Check(r.Context())
		}
		w.Header().Set("Content-Type", "application/json")
		if status.Status != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		if err := json.NewEncoder(w).Encode(status); err != nil {
			slog.Warn("failed to write health response", "error", err)
		}
	})
	return mux
}

// Start binds the listener before returning so address errors surface to the
// caller; serving continues in the background until Stop.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.bound = ln.Addr().String()
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("observability server started", "addr", s.bound)

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("observability server failed", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listen address once Start has succeeded.
func (s *Server) Addr() string {
	return s.bound
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
