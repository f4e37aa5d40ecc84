// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assess runs the TRL pipeline for one technology: extract features
// from the record stores, delegate scoring to the external model, classify
// the score and append the result to the assessment history.
//
// Each call recomputes everything against current data, so two calls for
// the same technology may disagree. Concurrent calls are independent and
// each writes its own history record.
package assess

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pdiddy/trl-engine/internal/scorer"
	"github.com/pdiddy/trl-engine/internal/status"
	"github.com/pdiddy/trl-engine/internal/store"
	"github.com/pdiddy/trl-engine/pkg/types"
)

// Extractor computes the feature set for a technology.
type Extractor interface {
	Extract(ctx context.Context, technology string) (types.FeatureSet, error)
}

// Config holds orchestration settings.
type Config struct {
	// ScorerTimeout bounds each scorer call. Zero means no bound beyond
	// the caller's context.
	ScorerTimeout time.Duration
}

// Stats are cumulative counters since the service was created.
type Stats struct {
	Assessments          uint64 `json:"assessments"`
	ValidationFailures   uint64 `json:"validation_failures"`
	ExtractionFailures   uint64 `json:"extraction_failures"`
	ScoringFailures      uint64 `json:"scoring_failures"`
	HistoryWriteFailures uint64 `json:"history_write_failures"`
}

type counters struct {
	assessments     atomic.Uint64
	validation      atomic.Uint64
	extraction      atomic.Uint64
	scoring         atomic.Uint64
	historyFailures atomic.Uint64
}

// Service sequences the pipeline stages. All collaborators are injected.
type Service struct {
	extractor Extractor
	scorer    scorer.Scorer
	history   store.History
	logger    *slog.Logger
	cfg       Config
	stats     counters
}

// New creates a Service.
func New(extractor Extractor, sc scorer.Scorer, history store.History, logger *slog.Logger, cfg Config) *Service {
	return &Service{
		extractor: extractor,
		scorer:    sc,
		history:   history,
		logger:    logger.With("system", "assess"),
		cfg:       cfg,
	}
}

// Assess runs the pipeline for technology. It returns a complete assessment
// or an error matching ErrValidation, ErrStorageRead or ErrExternalScoring.
// A failed history write does not fail the call.
func (s *Service) Assess(ctx context.Context, technology string) (types.Assessment, error) {
	tech := strings.TrimSpace(technology)
	if tech == "" {
		s.stats.validation.Add(1)
		return types.Assessment{}, fmt.Errorf("%w: technology is required", ErrValidation)
	}

	log := s.logger.With("technology", tech)
	start := time.Now()

	features, err := s.extractor.Extract(ctx, tech)
	if err != nil {
		s.stats.extraction.Add(1)
		log.Error("feature extraction failed", "error", err)
		return types.Assessment{}, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}
	log.Debug("features extracted",
		"patents", features.PatentCount5y,
		"papers", features.PaperCount5y,
		"reports", features.IndustryMentions)

	result, err := s.score(ctx, tech, features)
	if err != nil {
		s.stats.scoring.Add(1)
		log.Error("scoring failed", "scorer", s.scorer.Name(), "error", err)
		return types.Assessment{}, fmt.Errorf("%w: %w", ErrExternalScoring, err)
	}

	a := types.Assessment{
		Technology: tech,
		TRLScore:   result.TRLScore,
		Status:     status.FromScore(result.TRLScore),
		Confidence: result.Confidence,
		Reasoning:  result.Reasoning,
		Features:   features,
	}

	if rec, err := s.history.Record(ctx, a); err != nil {
		s.stats.historyFailures.Add(1)
		log.Error("history write failed", "error", fmt.Errorf("%w: %w", ErrStorageWrite, err))
	} else {
		log.Debug("history recorded", "id", rec.ID)
	}

	s.stats.assessments.Add(1)
	log.Info("assessment complete",
		"trl_score", a.TRLScore,
		"status", a.Status,
		"duration", time.Since(start))

	return a, nil
}

func (s *Service) score(ctx context.Context, tech string, features types.FeatureSet) (scorer.Result, error) {
	if s.cfg.ScorerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ScorerTimeout)
		defer cancel()
	}
	return s.scorer.Score(ctx, tech, features)
}

// Stats returns a snapshot of the counters.
func (s *Service) Stats() Stats {
	return Stats{
		Assessments:          s.stats.assessments.Load(),
		ValidationFailures:   s.stats.validation.Load(),
		ExtractionFailures:   s.stats.extraction.Load(),
		ScoringFailures:      s.stats.scoring.Load(),
		HistoryWriteFailures: s.stats.historyFailures.Load(),
	}
}

// History lists stored assessments, newest first.
func (s *Service) History(ctx context.Context, q store.HistoryQuery) ([]types.AssessmentRecord, error) {
	q.Technology = strings.TrimSpace(q.Technology)
	records, err := s.history.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}
	return records, nil
}

// Distribution counts the latest assessment per technology by TRL bucket.
func (s *Service) Distribution(ctx context.Context) ([]types.BucketCount, error) {
	buckets, err := s.history.Distribution(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}
	return buckets, nil
}

// Progression returns the mean TRL score per year for technology.
func (s *Service) Progression(ctx context.Context, technology string) ([]types.YearScore, error) {
	tech := strings.TrimSpace(technology)
	if tech == "" {
		return nil, fmt.Errorf("%w: technology is required", ErrValidation)
	}
	points, err := s.history.Progression(ctx, tech)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}
	return points, nil
}
