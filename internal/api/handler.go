// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package api exposes the assessment service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pdiddy/trl-engine/internal/assess"
	"github.com/pdiddy/trl-engine/internal/store"
	"github.com/pdiddy/trl-engine/pkg/types"
)

// Service is what the handlers need from the assessment service.
type Service interface {
	Assess(ctx context.Context, technology string) (types.Assessment, error)
	History(ctx context.Context, q store.HistoryQuery) ([]types.AssessmentRecord, error)
	Distribution(ctx context.Context) ([]types.BucketCount, error)
	Progression(ctx context.Context, technology string) ([]types.YearScore, error)
	Stats() assess.Stats
}

// maxHistoryLimit caps the history page size a client can request.
const maxHistoryLimit = 500

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 16

// Handler serves the TRL endpoints.
type Handler struct {
	svc    Service
	logger *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger.With("handler", "trl")}
}

// Router builds the chi router with middleware and all routes mounted.
func (h *Handler) Router(corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(Logger(h.logger))
	r.Use(CORS(corsOrigins))

	r.Get("/healthz", h.Health)

	r.Route("/api/trl", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Post("/predict", h.Predict)
		r.Get("/history", h.History)
		r.Get("/distribution", h.Distribution)
		r.Get("/progression", h.Progression)
	})

	return r
}

type predictRequest struct {
	Technology string `json:"technology"`
}

// Get assesses the technology named by the tech query parameter.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	h.assess(w, r, r.URL.Query().Get("tech"))
}

// Predict assesses the technology named in the JSON body.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	h.assess(w, r, req.Technology)
}

func (h *Handler) assess(w http.ResponseWriter, r *http.Request, technology string) {
	a, err := h.svc.Assess(r.Context(), technology)
	if err != nil {
		RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	RespondJSON(w, http.StatusOK, a)
}

// History lists stored assessments, optionally for one technology.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", store.DefaultHistoryLimit)
	if err != nil || limit <= 0 {
		RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("limit must be a positive integer"))
		return
	}

	records, err := h.svc.History(r.Context(), store.HistoryQuery{
		Technology: r.URL.Query().Get("tech"),
		Limit:      min(limit, maxHistoryLimit),
	})
	if err != nil {
		RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	if records == nil {
		records = []types.AssessmentRecord{}
	}
	RespondJSON(w, http.StatusOK, records)
}

// Distribution counts technologies per TRL bucket.
func (h *Handler) Distribution(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.svc.Distribution(r.Context())
	if err != nil {
		RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	RespondJSON(w, http.StatusOK, buckets)
}

// Progression returns the yearly mean score for a technology.
func (h *Handler) Progression(w http.ResponseWriter, r *http.Request) {
	points, err := h.svc.Progression(r.Context(), r.URL.Query().Get("tech"))
	if err != nil {
		RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	if points == nil {
		points = []types.YearScore{}
	}
	RespondJSON(w, http.StatusOK, points)
}

type healthResponse struct {
	Status string       `json:"status"`
	Stats  assess.Stats `json:"stats"`
}

// Health reports liveness with the service counters.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	RespondJSON(w, http.StatusOK, healthResponse{Status: "ok", Stats: h.svc.Stats()})
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
