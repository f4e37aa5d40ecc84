// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/pdiddy/trl-engine/internal/assess"
	"github.com/pdiddy/trl-engine/internal/features"
	"github.com/pdiddy/trl-engine/internal/scorer"
	"github.com/pdiddy/trl-engine/internal/store"
	"github.com/pdiddy/trl-engine/pkg/types"
)

// pipeline holds the wired components for one command invocation.
type pipeline struct {
	backend store.Backend
	service *assess.Service
}

// openPipeline connects the store and wires extractor, scorer and service
// from c. The caller must Close the result.
func openPipeline(ctx context.Context, c types.Config) (*pipeline, error) {
	backend, err := store.Open(ctx, c.Store)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	sc, err := scorer.New(ctx, c.Scorer)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("configuring scorer: %w", err)
	}

	extractor := features.New(backend, features.Config{
		WindowYears: c.Features.WindowYears,
		Normalizer:  c.Features.KeywordNormalizer,
	})

	svc := assess.New(extractor, sc, backend, logger, assess.Config{
		ScorerTimeout: c.Scorer.Timeout,
	})

	logger.Debug("pipeline ready",
		"store", c.Store.Driver,
		"scorer", sc.Name(),
		"window_years", c.Features.WindowYears)

	return &pipeline{backend: backend, service: svc}, nil
}

func (p *pipeline) Close() error {
	return p.backend.Close()
}

// openStore connects only the store, for commands that do not score.
func openStore(ctx context.Context, c types.Config) (store.Backend, error) {
	backend, err := store.Open(ctx, c.Store)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return backend, nil
}
