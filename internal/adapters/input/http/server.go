// Package http serves the simulated controller's REST API.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"led-effect-editor/internal/domain/model"
	"led-effect-editor/internal/ports"
)

// RequestIDHeader is echoed back so clients can correlate their logs.
const RequestIDHeader = "X-Request-ID"

type Server struct {
	controller ports.ControllerPort
	logger     *zap.SugaredLogger
}

func NewServer(controller ports.ControllerPort, logger *zap.SugaredLogger) *Server {
	return &Server{controller: controller, logger: logger}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/effects", s.handleEffects)
	mux.HandleFunc("PUT /api/effects/{name}/config", s.handleSetEffectConfig)
	mux.HandleFunc("GET /api/segments", s.handleSegments)
	mux.HandleFunc("PUT /api/segments/{idx}/effect", s.handleAssignEffect)
	mux.HandleFunc("GET /api/presets", s.handlePresets)
	mux.HandleFunc("PUT /api/presets/{name}", s.handleSavePreset)
	mux.HandleFunc("POST /api/presets/{name}/load", s.handleLoadPreset)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("PUT /api/config", s.handleSetConfig)
	return s.logRequests(mux)
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("Listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		if id := r.Header.Get(RequestIDHeader); id != "" {
			w.Header().Set(RequestIDHeader, id)
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debugw("Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"request_id", r.Header.Get(RequestIDHeader),
			"duration", time.Since(start))
	})
}

func (s *Server) handleEffects(w http.ResponseWriter, r *http.Request) {
	effects, err := s.controller.Effects(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, effects)
}

func (s *Server) handleSetEffectConfig(w http.ResponseWriter, r *http.Request) {
	var cfg model.Config
	if err := decodeBody(r, &cfg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.controller.SetEffectConfig(r.Context(), r.PathValue("name"), cfg); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSegments(w http.ResponseWriter, r *http.Request) {
	segments, err := s.controller.Segments(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, segments)
}

type assignRequest struct {
	Effect string `json:"effect"`
}

func (s *Server) handleAssignEffect(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(r.PathValue("idx"))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid segment index %q", r.PathValue("idx")), http.StatusBadRequest)
		return
	}
	var req assignRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	state, err := s.controller.AssignEffect(r.Context(), idx, req.Effect)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, state)
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	presets, err := s.controller.Presets(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, presets)
}

func (s *Server) handleSavePreset(w http.ResponseWriter, r *http.Request) {
	preset, err := s.controller.SavePreset(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, preset)
}

func (s *Server) handleLoadPreset(w http.ResponseWriter, r *http.Request) {
	state, err := s.controller.LoadPreset(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, state)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state, err := s.controller.DisplayState(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, state)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.controller.GlobalConfig(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, cfg)
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var cfg model.Config
	if err := decodeBody(r, &cfg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.controller.SetGlobalConfig(r.Context(), cfg); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrInvalidConfig):
		status = http.StatusBadRequest
	default:
		s.logger.Errorw("Request failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}

func decodeBody(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
