// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package trigger exposes the pipeline over HTTP so an external scheduler
// (Cloud Scheduler, a cron job with curl) can start runs.
//
//	POST /run      starts a run and returns its summary as JSON
//	GET  /healthz  liveness check
//
// When a token is configured, POST /run requires "Authorization: Bearer
// <token>".
package trigger

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pdiddy/paperbot/internal/pipeline"
	"github.com/pdiddy/paperbot/internal/schedule"
)

// RunTimeout bounds one triggered run.
const RunTimeout = 15 * time.Minute

// Response is the JSON body of POST /run.
type Response struct {
	Status      string               `json:"status"`
	Summary     *pipeline.RunSummary `json:"summary,omitempty"`
	FetchErrors []string             `json:"fetch_errors,omitempty"`
	Error       string               `json:"error,omitempty"`
}

// Handler serves the trigger endpoints.
type Handler struct {
	Runner *schedule.Runner
	Token  string
	Logger *slog.Logger
}

// Router returns a chi router with request IDs and panic recovery.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Group(func(r chi.Router) {
		r.Use(h.authorize)
		r.Post("/run", h.run)
	})
	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, Response{Status: "ok"})
}

func (h *Handler) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Token != "" {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(h.Token)) != 1 {
				h.writeJSON(w, http.StatusUnauthorized, Response{Status: "error", Error: "unauthorized"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), RunTimeout)
	defer cancel()

	logger := h.logger().With("request_id", middleware.GetReqID(r.Context()))
	logger.Info("triggered run", "remote", r.RemoteAddr)

	sum, err := h.Runner.Run(ctx)
	switch {
	case errors.Is(err, schedule.ErrBusy):
		h.writeJSON(w, http.StatusConflict, Response{Status: "busy", Error: err.Error()})
		return
	case err != nil:
		h.writeJSON(w, http.StatusInternalServerError, Response{Status: "error", Summary: &sum, Error: err.Error()})
		return
	}

	resp := Response{Status: "ok", Summary: &sum}
	for _, fe := range sum.FetchErrors {
		resp.FetchErrors = append(resp.FetchErrors, fe.Error())
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// writeJSON sends v with status. The header is already out when encoding
// fails, so the error is only logged.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger().Debug("writing response failed", "status", status, "err", err)
	}
}
