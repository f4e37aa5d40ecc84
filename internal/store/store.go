// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists source records (patents, publications, market
// reports) and the append-only TRL assessment history. Two backends share
// one contract: SQLite for local use and MongoDB for the shared dashboard
// database.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/trl-engine/pkg/types"
)

// Match selects source records whose text fields contain Text
// (case-insensitive, literal) and whose year is at least FromYear.
type Match struct {
	Text     string
	FromYear int
}

// Records reads and loads source records.
type Records interface {
	FindPatents(ctx context.Context, m Match) ([]types.Patent, error)
	FindPublications(ctx context.Context, m Match) ([]types.Publication, error)
	FindMarketReports(ctx context.Context, m Match) ([]types.MarketReport, error)

	UpsertPatents(ctx context.Context, patents []types.Patent) (int, error)
	UpsertPublications(ctx context.Context, pubs []types.Publication) (int, error)
	UpsertMarketReports(ctx context.Context, reports []types.MarketReport) (int, error)
}

// HistoryQuery filters the assessment history.
type HistoryQuery struct {
	// Technology matches case-insensitively and exactly. Empty lists all.
	Technology string

	// Limit caps the result count. Zero uses DefaultHistoryLimit.
	Limit int
}

// DefaultHistoryLimit is the history page size when none is given.
const DefaultHistoryLimit = 50

// History is the append-only assessment log. There is no update or delete.
type History interface {
	// Record appends an assessment and returns the stored record with its
	// generated id and timestamp.
	Record(ctx context.Context, a types.Assessment) (types.AssessmentRecord, error)

	// List returns records newest first.
	List(ctx context.Context, q HistoryQuery) ([]types.AssessmentRecord, error)

	// Distribution counts the latest assessment of every technology by
	// TRL bucket.
	Distribution(ctx context.Context) ([]types.BucketCount, error)

	// Progression returns the mean TRL score per year for a technology.
	Progression(ctx context.Context, technology string) ([]types.YearScore, error)
}

// Backend combines both stores behind one connection.
type Backend interface {
	Records
	History
	Close() error
}

// Option configures a backend.
type Option func(*storeOptions)

type storeOptions struct {
	now func() time.Time
}

// WithClock sets the clock used to stamp history records.
func WithClock(now func() time.Time) Option {
	return func(o *storeOptions) { o.now = now }
}

func buildOptions(opts []Option) storeOptions {
	o := storeOptions{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Open connects the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg types.StoreConfig, opts ...Option) (Backend, error) {
	switch cfg.Driver {
	case types.DriverSQLite, "":
		return NewSQLite(cfg.Path, opts...)
	case types.DriverMongo:
		return NewMongo(ctx, cfg, opts...)
	default:
		return nil, fmt.Errorf("unknown store driver %q: use sqlite or mongo", cfg.Driver)
	}
}
