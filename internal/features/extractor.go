// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package features turns a technology name into the numeric FeatureSet the
// external scorer consumes. It reads patents, publications and market
// reports from a Source over a trailing window and derives counts, growth
// ratios and the maturity keyword heuristic from them.
package features

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/trl-engine/internal/store"
	"github.com/pdiddy/trl-engine/pkg/types"
)

// Source is the read side of the record stores.
type Source interface {
	FindPatents(ctx context.Context, m store.Match) ([]types.Patent, error)
	FindPublications(ctx context.Context, m store.Match) ([]types.Publication, error)
	FindMarketReports(ctx context.Context, m store.Match) ([]types.MarketReport, error)
}

// Config holds extraction tunables. Zero values use the defaults.
type Config struct {
	// WindowYears is the trailing window length (default 5).
	WindowYears float64

	// Normalizer divides the raw keyword sum (default 50).
	Normalizer float64

	// Tiers overrides the keyword tiers.
	Tiers []Tier
}

// Window is the year-granular trailing window for one extraction.
type Window struct {
	// FromYear is the first year included.
	FromYear int

	// MidYear splits the window: years before it are early, the rest late.
	MidYear int
}

// Extractor computes feature sets from a Source.
type Extractor struct {
	src Source
	cfg Config
	now func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock sets the clock that anchors the trailing window.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// New returns an Extractor reading from src.
func New(src Source, cfg Config, opts ...Option) *Extractor {
	if cfg.WindowYears <= 0 {
		cfg.WindowYears = 5
	}
	if cfg.Normalizer <= 0 {
		cfg.Normalizer = DefaultNormalizer
	}
	if len(cfg.Tiers) == 0 {
		cfg.Tiers = DefaultTiers()
	}

	e := &Extractor{src: src, cfg: cfg, now: time.Now}
	for _, fn := range opts {
		fn(e)
	}
	return e
}

// WindowAt returns the window anchored at now.
func (e *Extractor) WindowAt(now time.Time) Window {
	months := int(math.Round(e.cfg.WindowYears * 12))
	return Window{
		FromYear: now.AddDate(0, -months, 0).Year(),
		MidYear:  now.AddDate(0, -months/2, 0).Year(),
	}
}

// Extract reads matching records for technology and computes its features.
// The three reads run concurrently; the first failure cancels the others.
func (e *Extractor) Extract(ctx context.Context, technology string) (types.FeatureSet, error) {
	w := e.WindowAt(e.now())
	m := store.Match{Text: strings.TrimSpace(technology), FromYear: w.FromYear}

	var (
		patents []types.Patent
		pubs    []types.Publication
		reports []types.MarketReport
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if patents, err = e.src.FindPatents(gctx, m); err != nil {
			return fmt.Errorf("reading patents: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if pubs, err = e.src.FindPublications(gctx, m); err != nil {
			return fmt.Errorf("reading publications: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if reports, err = e.src.FindMarketReports(gctx, m); err != nil {
			return fmt.Errorf("reading market reports: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return types.FeatureSet{}, err
	}

	return e.compute(w, patents, pubs, reports), nil
}

func (e *Extractor) compute(w Window, patents []types.Patent, pubs []types.Publication, reports []types.MarketReport) types.FeatureSet {
	var fs types.FeatureSet

	var earlyPatents, latePatents, citations int
	for _, p := range patents {
		if p.Year < w.MidYear {
			earlyPatents++
		} else {
			latePatents++
		}
		citations += p.CitationCount
	}
	fs.PatentCount5y = len(patents)
	fs.PatentGrowthRate = growth(float64(earlyPatents), float64(latePatents))
	fs.AvgCitations = float64(citations) / math.Max(float64(len(patents)), 1)

	abstracts := make([]string, len(pubs))
	for i, p := range pubs {
		abstracts[i] = p.Abstract
	}
	fs.PaperCount5y = len(pubs)
	fs.ResearchIntensity = math.Log1p(float64(len(pubs)))
	fs.MaturityKeywordScore = KeywordScore(abstracts, e.cfg.Tiers, e.cfg.Normalizer)

	var earlyFunding, lateFunding float64
	for _, r := range reports {
		if r.Year < w.MidYear {
			earlyFunding += r.FundingAmount
		} else {
			lateFunding += r.FundingAmount
		}
		if strings.EqualFold(r.Stage, types.StageProduction) {
			fs.DeploymentIndicator = 1
		}
	}
	fs.IndustryMentions = len(reports)
	fs.FundingTotal = earlyFunding + lateFunding
	fs.FundingTrend = growth(earlyFunding, lateFunding)

	return fs
}

// growth is (late - early) / max(early, 1).
func growth(early, late float64) float64 {
	return (late - early) / math.Max(early, 1)
}
