package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"aijobsdash/common/telemetry"
	"aijobsdash/services/dashboard/internal/config"
	"aijobsdash/services/dashboard/internal/dataset"
	"aijobsdash/services/dashboard/internal/errors"
	"aijobsdash/services/dashboard/internal/export"
	"aijobsdash/services/dashboard/internal/filter"
	"aijobsdash/services/dashboard/internal/models"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultPostingsLimit = 100

type Server struct {
	logger *zap.Logger
	store  *dataset.Store
	config *config.Config
	tracer trace.Tracer
	http   *http.Server

	// reloads throttles POST /api/reload.
	reloads *rate.Limiter
}

func New(logger *zap.Logger, store *dataset.Store, config *config.Config) *Server {
	s := &Server{
		logger: logger,
		store:  store,
		config: config,
		tracer: telemetry.GetTracer("aijobsdash/dashboard/server"),
	}
	s.reloads = rate.NewLimiter(rate.Inf, 1)
	if config.ReloadInterval > 0 {
		s.reloads = rate.NewLimiter(rate.Every(config.ReloadInterval), 1)
	}
	s.http = &http.Server{
		Addr:         config.HTTPAddr,
		Handler:      s.Handler(),
		ReadTimeout:  config.HTTPReadTimeout,
		WriteTimeout: config.HTTPWriteTimeout,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.health)
	mux.HandleFunc("GET /api/filters", s.filters)
	mux.HandleFunc("GET /api/dashboard", s.dashboard)
	mux.HandleFunc("GET /api/views/{view}", s.view)
	mux.HandleFunc("GET /api/postings", s.postings)
	mux.HandleFunc("GET /api/postings.xlsx", s.postingsXLSX)
	mux.HandleFunc("POST /api/reload", s.reload)
	return mux
}

// Register starts and stops the HTTP listener with the fx application.
func (s *Server) Register(lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", s.http.Addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", s.http.Addr, err)
			}
			s.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := s.http.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
					s.logger.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
			defer cancel()
			return s.http.Shutdown(ctx)
		},
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) filters(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "GET /api/filters")
	defer span.End()

	choices, err := s.store.Options(ctx)
	if err != nil {
		span.RecordError(err)
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, choices)
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "GET /api/dashboard")
	defer span.End()

	sel := selectionFromRequest(r)
	span.SetAttributes(
		telemetry.Strings("filter.locations", sel.Locations),
		telemetry.Strings("filter.experience", sel.ExperienceLabels),
	)

	resp, err := s.store.Dashboard(ctx, sel)
	if err != nil {
		span.RecordError(err)
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) view(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "GET /api/views")
	defer span.End()

	id := r.PathValue("view")
	span.SetAttributes(telemetry.String("view.id", id))

	resp, err := s.store.View(ctx, id, selectionFromRequest(r))
	if err != nil {
		span.RecordError(err)
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type postingsResponse struct {
	Selection filter.Selection    `json:"selection"`
	Rows      int                 `json:"rows"`
	Limit     int                 `json:"limit"`
	Postings  []models.JobPosting `json:"postings"`
}

func (s *Server) postings(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "GET /api/postings")
	defer span.End()

	limit, err := s.parseLimit(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	sel := selectionFromRequest(r)
	table, err := s.store.Filtered(ctx, sel)
	if err != nil {
		span.RecordError(err)
		s.writeError(w, err)
		return
	}

	rows := table.Rows()
	if len(rows) > limit {
		rows = rows[:limit]
	}
	s.writeJSON(w, http.StatusOK, postingsResponse{
		Selection: sel,
		Rows:      table.Len(),
		Limit:     limit,
		Postings:  rows,
	})
}

func (s *Server) postingsXLSX(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "GET /api/postings.xlsx")
	defer span.End()

	table, err := s.store.Filtered(ctx, selectionFromRequest(r))
	if err != nil {
		span.RecordError(err)
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="ai_job_postings.xlsx"`)
	if err := export.WriteXLSX(w, table); err != nil {
		span.RecordError(err)
		s.logger.Error("failed to write xlsx export", zap.Error(err))
	}
}

func (s *Server) reload(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "POST /api/reload")
	defer span.End()

	if !s.reloads.Allow() {
		s.writeError(w, errors.RateLimited("reload requested too soon, try again later"))
		return
	}

	report, err := s.store.Reload(ctx)
	if err != nil {
		span.RecordError(err)
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return min(defaultPostingsLimit, s.config.MaxPostingsLimit), nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, errors.InvalidInput(fmt.Sprintf("limit %q must be a positive integer", raw), err)
	}
	return min(limit, s.config.MaxPostingsLimit), nil
}

// selectionFromRequest reads repeated location and experience query
// parameters.
func selectionFromRequest(r *http.Request) filter.Selection {
	q := r.URL.Query()
	return filter.Selection{
		Locations:        nonBlank(q["location"]),
		ExperienceLabels: nonBlank(q["experience"]),
	}
}

// nonBlank drops empty parameter values such as a bare "?location=".
func nonBlank(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func statusFor(err error) int {
	switch errors.TypeOf(err) {
	case errors.ErrTypeNotFound:
		return http.StatusNotFound
	case errors.ErrTypeInvalidInput, errors.ErrTypeUnknownLabel:
		return http.StatusBadRequest
	case errors.ErrTypeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrTypeSourceUnavailable, errors.ErrTypeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.Int("status", status), zap.Error(err))
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeJSON encodes v before any header is sent, so an unencodable value
// becomes a 500 instead of an empty 200.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"failed to encode response"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		s.logger.Warn("failed to write response", zap.Error(err))
	}
}
