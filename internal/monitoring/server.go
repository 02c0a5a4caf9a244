package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kvbench/internal/bench"
	"kvbench/internal/container"
	"kvbench/internal/driver"
	"kvbench/internal/logging"
	"kvbench/internal/results"
	"kvbench/internal/workload"
)

const defaultMetricsPath = "/metrics"

// TrialRunner runs a single on-demand trial
type TrialRunner interface {
	RunTrial(ctx context.Context, wl workload.Config, threads int) (results.RunResult, error)
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	// Addr may use port 0, see Server.Addr for the bound address
	Addr        string
	MetricsPath string
	// MaxThreads caps on-demand trials; 0 means driver.DefaultMaxThreads
	MaxThreads int
}

// Server exposes metrics, stored results and on-demand trials over HTTP
type Server struct {
	httpServer *http.Server
	metrics    *Metrics
	store      *ResultStore
	runner     TrialRunner
	maxThreads int
	logger     *logging.Logger
	started    time.Time
}

// TrialRequest is the body of POST /api/v1/trials
type TrialRequest struct {
	// Workload is a preset name or "read,update,insert,delete"
	Workload string `json:"workload"`
	Threads  int    `json:"threads"`
}

// ResultsResponse lists stored trial results
type ResultsResponse struct {
	Results []results.RunResult `json:"results"`
	Count   int                 `json:"count"`
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Trials        int    `json:"trials"`
	Timestamp     int64  `json:"timestamp"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewServer builds the router. runner may be nil, in which case on-demand
// trials are answered with 503.
func NewServer(cfg ServerConfig, metrics *Metrics, store *ResultStore, runner TrialRunner, logger *logging.Logger) *Server {
	if metrics == nil {
		metrics = NewMetrics()
	}
	if store == nil {
		store = NewResultStore()
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = defaultMetricsPath
	}
	if cfg.MaxThreads <= 0 {
		cfg.MaxThreads = driver.DefaultMaxThreads()
	}
	if logger == nil {
		logCfg := logging.ProductionLoggingConfig()
		logger = logging.NewLogger(&logCfg)
	}

	s := &Server{
		metrics:    metrics,
		store:      store,
		runner:     runner,
		maxThreads: cfg.MaxThreads,
		logger:     logger,
		started:    time.Now(),
	}

	// No WriteTimeout: POST /api/v1/trials answers after the trial completes.
	s.httpServer = &http.Server{
		Addr:           cfg.Addr,
		Handler:        s.routes(cfg.MetricsPath),
		ReadTimeout:    10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	return s
}

func (s *Server) routes(metricsPath string) *mux.Router {
	router := mux.NewRouter()

	router.Use(logging.CorrelationIDMiddleware(s.logger))
	router.Use(logging.LoggingMiddleware(s.logger))

	router.Handle(metricsPath, promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/health", s.Health).Methods(http.MethodGet)
	v1.HandleFunc("/containers", s.Containers).Methods(http.MethodGet)
	v1.HandleFunc("/results", s.Results).Methods(http.MethodGet)
	v1.HandleFunc("/results/table", s.Table).Methods(http.MethodGet)
	v1.HandleFunc("/trials", s.RunTrial).Methods(http.MethodPost)

	return router
}

// Handler returns the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening and serving HTTP in a background goroutine
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("monitoring server listen: %w", err)
	}
	s.httpServer.Addr = ln.Addr().String()

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("Monitoring server stopped unexpectedly")
		}
	}()

	s.logger.WithField("addr", s.httpServer.Addr).Info("Monitoring server listening")
	return nil
}

// Addr is the bound address once Start has returned
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// GET /api/v1/health
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, HealthResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Trials:        s.store.Len(),
		Timestamp:     time.Now().Unix(),
	})
}

// GET /api/v1/containers
func (s *Server) Containers(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, map[string][]string{
		"containers": container.Names(),
		"workloads":  workload.PresetNames(),
	})
}

// GET /api/v1/results?run_id=...&container=...
func (s *Server) Results(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	list := s.store.Filter(query.Get("run_id"), query.Get("container"))
	s.writeJSONResponse(w, http.StatusOK, ResultsResponse{
		Results: list,
		Count:   len(list),
	})
}

// GET /api/v1/results/table renders the stored results as a workload by
// thread count table of M ops/sec
func (s *Server) Table(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	list := s.store.Filter(query.Get("run_id"), query.Get("container"))

	entries := make([]results.Entry, 0, len(list))
	for _, res := range list {
		entries = append(entries, results.Entry{
			Threads:  res.Threads,
			Workload: res.Workload,
			Mops:     res.MopsPerSec(),
		})
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := results.BuildTable(entries).WriteTo(w); err != nil {
		s.logger.WithError(err).Error("Failed to write results table")
	}
}

// POST /api/v1/trials
func (s *Server) RunTrial(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		s.writeErrorResponse(w, http.StatusServiceUnavailable, "on-demand trials are not enabled")
		return
	}

	var req TrialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Threads <= 0 {
		s.writeErrorResponse(w, http.StatusBadRequest, "threads must be positive")
		return
	}
	if req.Threads > s.maxThreads {
		s.writeErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("threads must not exceed %d", s.maxThreads))
		return
	}
	wl, err := workload.ParseConfig(req.Workload)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.runner.RunTrial(r.Context(), wl, req.Threads)
	switch {
	case errors.Is(err, bench.ErrAlreadyRunning):
		s.writeErrorResponse(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, driver.ErrTooManyThreads):
		s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.WithContext(r.Context()).WithError(err).Error("On-demand trial failed")
		s.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSONResponse(w, http.StatusOK, result)
}

func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSONResponse(w, statusCode, ErrorResponse{
		Error:   message,
		Code:    statusCode,
		Message: http.StatusText(statusCode),
	})
}
