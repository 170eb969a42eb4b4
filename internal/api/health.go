package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"salonbot/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Check is a named readiness probe, e.g. a storage or Redis ping.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// HealthServer exposes liveness, readiness and Prometheus metrics.
type HealthServer struct {
	server       *http.Server
	checks       []Check
	probeTimeout time.Duration
	logger       *zerolog.Logger
}

func NewHealthServer(port int, withMetrics bool, checks []Check, logger *zerolog.Logger) *HealthServer {
	metrics.Register()

	srv := &HealthServer{
		checks:       checks,
		probeTimeout: time.Second,
		logger:       logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.HandleFunc("/readyz", srv.handleReady)
	if withMetrics {
		mux.Handle("/metrics", promhttp.Handler())
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           srv.loggingMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return srv
}

func (s *HealthServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HealthServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("health server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HealthServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HealthServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HealthServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.probeTimeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for _, c := range s.checks {
		if err := c.Probe(ctx); err != nil {
			s.logger.Warn().Err(err).Str("check", c.Name).Msg("readiness check failed")
			results[c.Name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[c.Name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	writeJSON(w, status, map[string]any{"status": state, "checks": results})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *HealthServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		metrics.IncHTTP(r.URL.Path)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("dur", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
