// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scorer reaches the external TRL scoring model. The model is an
// opaque collaborator: it receives a technology name with its feature set
// and answers with a score, a confidence and four reasoning notes. Three
// transports exist: a local subprocess, a model-serving HTTP endpoint and a
// container image run with docker or podman. All speak the same JSON
// contract.
//
// The gateway never invents a score. Every failure is returned to the
// caller as one of the package sentinels.
package scorer

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/trl-engine/pkg/types"
)

// Sentinel errors.
var (
	// ErrUnavailable means the scorer could not be reached or exited with a
	// failure.
	ErrUnavailable = errors.New("scorer unavailable")

	// ErrTimeout means the scorer did not answer before the deadline.
	ErrTimeout = errors.New("scorer timed out")

	// ErrMalformedResponse means the scorer answered with a body that does
	// not satisfy the response contract.
	ErrMalformedResponse = errors.New("malformed scorer response")
)

// Result is the scorer's verdict for one technology.
type Result struct {
	TRLScore   float64
	Confidence float64
	Reasoning  types.Reasoning
}

// Scorer converts a feature set into a TRL score.
type Scorer interface {
	// Name identifies the transport in logs.
	Name() string

	// Score asks the model for a verdict. Cancellation and deadlines on ctx
	// are honored.
	Score(ctx context.Context, technology string, features types.FeatureSet) (Result, error)
}

// New returns the scorer for cfg.Transport. ctx bounds the container
// runtime probe and is not retained.
func New(ctx context.Context, cfg types.ScorerConfig) (Scorer, error) {
	switch cfg.Transport {
	case types.TransportProcess, "":
		if cfg.Command == "" {
			return nil, fmt.Errorf("process scorer requires a command")
		}
		return NewProcess(cfg), nil
	case types.TransportHTTP:
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("http scorer requires an endpoint")
		}
		return NewHTTP(cfg), nil
	case types.TransportContainer:
		return NewContainer(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown scorer transport %q: use process, http or container", cfg.Transport)
	}
}
