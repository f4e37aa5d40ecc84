// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/trl-engine/pkg/types"
)

// Seed file base names. Each may be .yaml, .yml or .json.
const (
	seedPatents       = "patents"
	seedPublications  = "publications"
	seedMarketReports = "market_reports"
)

// IngestSummary holds counts from a seed ingest run.
type IngestSummary struct {
	Patents       int
	Publications  int
	MarketReports int
	Failed        int
}

// Total returns the number of records loaded.
func (s IngestSummary) Total() int {
	return s.Patents + s.Publications + s.MarketReports
}

// Ingest loads the seed files found in dir and upserts them into records.
// Missing files are skipped; a file that fails to parse or load is counted
// in Failed and does not stop the others.
func Ingest(ctx context.Context, records Records, dir string, w io.Writer) (IngestSummary, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading seed directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return IngestSummary{}, fmt.Errorf("seed path %s is not a directory", dir)
	}

	var summary IngestSummary

	loaders := []struct {
		name  string
		count *int
		load  func(path string) (int, error)
	}{
		{seedPatents, &summary.Patents, func(path string) (int, error) {
			items, err := readSeed[types.Patent](path)
			if err != nil {
				return 0, err
			}
			return records.UpsertPatents(ctx, items)
		}},
		{seedPublications, &summary.Publications, func(path string) (int, error) {
			items, err := readSeed[types.Publication](path)
			if err != nil {
				return 0, err
			}
			return records.UpsertPublications(ctx, items)
		}},
		{seedMarketReports, &summary.MarketReports, func(path string) (int, error) {
			items, err := readSeed[types.MarketReport](path)
			if err != nil {
				return 0, err
			}
			return records.UpsertMarketReports(ctx, items)
		}},
	}

	for _, l := range loaders {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		path, ok := findSeed(dir, l.name)
		if !ok {
			fmt.Fprintf(w, "skipped %s: no seed file\n", l.name)
			continue
		}

		n, err := l.load(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", filepath.Base(path), err)
			summary.Failed++
			continue
		}
		*l.count = n
		fmt.Fprintf(w, "loaded  %s (%d records)\n", filepath.Base(path), n)
	}

	fmt.Fprintf(w, "\npatents: %d, publications: %d, market reports: %d, failed: %d\n",
		summary.Patents, summary.Publications, summary.MarketReports, summary.Failed)

	return summary, nil
}

func findSeed(dir, name string) (string, bool) {
	for _, ext := range []string{".yaml", ".yml", ".json"} {
		path := filepath.Join(dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, true
		} else if !errors.Is(err, fs.ErrNotExist) {
			return path, true
		}
	}
	return "", false
}

func readSeed[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var items []T
	if filepath.Ext(path) == ".json" {
		err = json.Unmarshal(data, &items)
	} else {
		err = yaml.Unmarshal(data, &items)
	}
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return items, nil
}
