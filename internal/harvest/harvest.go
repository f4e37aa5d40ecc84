// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package harvest pulls source records for a technology from public APIs
// and loads them into the record store, so assessments have real data to
// work from. Patents come from PatentsView and publications from OpenAlex.
package harvest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/pdiddy/trl-engine/internal/store"
	"github.com/pdiddy/trl-engine/pkg/types"
)

// Query selects what to fetch.
type Query struct {
	Technology string

	// FromYear drops records dated before it. Zero fetches everything.
	FromYear int

	MaxResults int
}

// Batch is what one backend returns.
type Batch struct {
	Patents      []types.Patent
	Publications []types.Publication
}

// Backend fetches records from a single API.
type Backend interface {
	Name() string
	Fetch(ctx context.Context, q Query) (Batch, error)
}

// Summary holds counts from a harvest run.
type Summary struct {
	Patents       int
	Publications  int
	BackendErrors []string
}

// Backends returns the default backends configured from cfg.
func Backends(cfg types.HarvestConfig) []Backend {
	client := &http.Client{Timeout: cfg.Timeout}
	return []Backend{
		&PatentsViewBackend{Client: client, APIKey: cfg.PatentsViewAPIKey, UserAgent: cfg.UserAgent},
		&OpenAlexBackend{Client: client, Email: cfg.OpenAlexEmail, UserAgent: cfg.UserAgent},
	}
}

// Run queries all backends concurrently and upserts what they return. A
// failing backend is reported and does not stop the others; Run fails only
// when every backend fails or the store rejects a batch.
func Run(ctx context.Context, q Query, backends []Backend, records store.Records, w io.Writer) (Summary, error) {
	q.Technology = strings.TrimSpace(q.Technology)
	if q.Technology == "" {
		return Summary{}, fmt.Errorf("technology is required")
	}
	if len(backends) == 0 {
		return Summary{}, fmt.Errorf("no harvest backends configured")
	}

	type result struct {
		batch Batch
		err   error
	}
	results := make([]result, len(backends))

	var wg sync.WaitGroup
	for i, b := range backends {
		wg.Go(func() {
			batch, err := b.Fetch(ctx, q)
			results[i] = result{batch: batch, err: err}
		})
	}
	wg.Wait()

	// Merge in backend order so output and upserts do not depend on timing.
	var (
		merged  Batch
		summary Summary
	)
	for i, b := range backends {
		r := results[i]
		if r.err != nil {
			fmt.Fprintf(w, "warning: %s: %v\n", b.Name(), r.err)
			summary.BackendErrors = append(summary.BackendErrors, fmt.Sprintf("%s: %v", b.Name(), r.err))
			continue
		}
		fmt.Fprintf(w, "fetched %s (%d patents, %d publications)\n",
			b.Name(), len(r.batch.Patents), len(r.batch.Publications))
		merged.Patents = append(merged.Patents, r.batch.Patents...)
		merged.Publications = append(merged.Publications, r.batch.Publications...)
	}

	if len(summary.BackendErrors) == len(backends) {
		return summary, fmt.Errorf("all harvest backends failed: %s", strings.Join(summary.BackendErrors, "; "))
	}

	var err error
	if summary.Patents, err = records.UpsertPatents(ctx, merged.Patents); err != nil {
		return summary, fmt.Errorf("storing patents: %w", err)
	}
	if summary.Publications, err = records.UpsertPublications(ctx, merged.Publications); err != nil {
		return summary, fmt.Errorf("storing publications: %w", err)
	}

	fmt.Fprintf(w, "\npatents: %d, publications: %d, backend errors: %d\n",
		summary.Patents, summary.Publications, len(summary.BackendErrors))

	return summary, nil
}

func clampResults(n, def, limit int) int {
	if n <= 0 {
		n = def
	}
	return min(n, limit)
}
