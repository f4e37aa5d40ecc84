// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scorer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/trl-engine/internal/httputil"
	"github.com/pdiddy/trl-engine/pkg/types"
)

// maxResponseBytes caps how much of a scorer response is read.
const maxResponseBytes = 1 << 20

// HTTPScorer posts the request to a model-serving endpoint.
type HTTPScorer struct {
	endpoint   string
	token      string
	userAgent  string
	maxRetries int
	client     *http.Client
}

var _ Scorer = (*HTTPScorer)(nil)

// NewHTTP returns a scorer posting to cfg.Endpoint. The client timeout is
// left unset; callers bound each call through the context.
func NewHTTP(cfg types.ScorerConfig) *HTTPScorer {
	return &HTTPScorer{
		endpoint:   cfg.Endpoint,
		token:      cfg.Token,
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		client:     &http.Client{},
	}
}

func (h *HTTPScorer) Name() string { return string(types.TransportHTTP) }

// Score posts one request. Rate-limited responses are retried; any other
// non-2xx status is ErrUnavailable.
func (h *HTTPScorer) Score(ctx context.Context, technology string, features types.FeatureSet) (Result, error) {
	body, err := EncodeRequest(technology, features)
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("%w: building request: %w", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := httputil.DoWithRetry(ctx, h.client, req, h.maxRetries)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{}, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return Result{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{}, fmt.Errorf("%w: reading response: %w", ErrTimeout, err)
		}
		return Result{}, fmt.Errorf("%w: reading response: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("%w: %s returned HTTP %d", ErrUnavailable, h.endpoint, resp.StatusCode)
	}

	return DecodeResponse(data)
}
