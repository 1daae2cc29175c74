// Package server exposes audits over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppiankov/wcagscan/internal/audit"
	"github.com/ppiankov/wcagscan/internal/model"
	"github.com/ppiankov/wcagscan/internal/pipeline"
	"github.com/ppiankov/wcagscan/internal/store"
)

// Auditor runs one audit
type Auditor interface {
	Audit(ctx context.Context, req pipeline.Request) (*model.Report, error)
}

// Store is the subset of the audit store the server reads and writes
type Store interface {
	Save(ctx context.Context, r *model.Report) error
	Get(ctx context.Context, id string) (*model.Report, error)
	List(ctx context.Context, limit int) ([]store.AuditSummary, error)
	CriterionStats(ctx context.Context) ([]store.CriterionStat, error)
}

// Config wires the server's dependencies
type Config struct {
	Auditor      Auditor
	Store        Store // nil disables history and statistics
	Criteria     []audit.CriterionInfo
	AuditTimeout time.Duration
	Logger       *slog.Logger
}

// Server serves the REST API
type Server struct {
	cfg      Config
	validate *validator.Validate
	logger   *slog.Logger
}

// New creates a server
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.AuditTimeout <= 0 {
		cfg.AuditTimeout = 3 * time.Minute
	}
	return &Server{
		cfg:      cfg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   cfg.Logger,
	}
}

// Router builds the HTTP handler
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/criteria", s.handleCriteria)
	r.Get("/stats", s.handleStats)

	r.Route("/audits", func(r chi.Router) {
		r.Post("/", s.handleCreateAudit)
		r.Get("/", s.handleListAudits)
		r.Get("/{id}", s.handleGetAudit)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight requests
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleCreateAudit(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	mode, err := model.ParseMode(string(req.Mode))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Mode = mode

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.AuditTimeout)
	defer cancel()

	report, err := s.cfg.Auditor.Audit(ctx, req)
	if err != nil {
		status := auditErrorStatus(err)
		s.logger.Warn("audit failed", "url", req.URL, "status", status, "error", err)
		writeError(w, status, err.Error())
		return
	}

	if s.cfg.Store != nil {
		if err := s.cfg.Store.Save(r.Context(), report); err != nil {
			s.logger.Error("saving audit failed", "id", report.ID, "error", err)
		}
	}
	writeJSON(w, http.StatusCreated, report)
}

func (s *Server) handleListAudits(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "audit history is disabled")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}
	list, err := s.cfg.Store.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetAudit(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "audit history is disabled")
		return
	}
	report, err := s.cfg.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCriteria(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Criteria)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "audit history is disabled")
		return
	}
	stats, err := s.cfg.Store.CriterionStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func auditErrorStatus(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, pipeline.ErrRobotsDisallowed):
		return http.StatusForbidden
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
