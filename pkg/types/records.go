// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the trl-engine pipeline:
// the stored source records (patents, publications, market reports), the
// feature set computed from them, and the assessment written to history.
package types

import "time"

// Patent is a patent-like source record. Fields the pipeline reads are
// typed; anything else the seed or harvest source carried lands in Extra.
type Patent struct {
	// ID is the provider identifier (e.g. "US11234567" or "PAT0001").
	ID string `json:"id" yaml:"id" bson:"id"`

	Title    string `json:"title" yaml:"title" bson:"title"`
	Abstract string `json:"abstract" yaml:"abstract" bson:"abstract"`

	// Year is the filing or grant year used for the trailing window.
	Year int `json:"year" yaml:"year" bson:"year"`

	Country string `json:"country,omitempty" yaml:"country,omitempty" bson:"country,omitempty"`

	// CitationCount is the number of forward citations, when known.
	CitationCount int `json:"citation_count" yaml:"citation_count" bson:"citationCount"`

	Source string `json:"source,omitempty" yaml:"source,omitempty" bson:"source,omitempty"`

	Extra map[string]any `json:"extra,omitempty" yaml:"extra,omitempty" bson:"extra,omitempty"`
}

// Publication is a research paper or article record.
type Publication struct {
	ID       string   `json:"id" yaml:"id" bson:"id"`
	Title    string   `json:"title" yaml:"title" bson:"title"`
	Abstract string   `json:"abstract" yaml:"abstract" bson:"abstract"`
	Year     int      `json:"year" yaml:"year" bson:"year"`
	Authors  []string `json:"authors,omitempty" yaml:"authors,omitempty" bson:"authors,omitempty"`
	Journal  string   `json:"journal,omitempty" yaml:"journal,omitempty" bson:"journal,omitempty"`
	DOI      string   `json:"doi,omitempty" yaml:"doi,omitempty" bson:"doi,omitempty"`

	CitationCount int `json:"citation_count" yaml:"citation_count" bson:"citations"`

	Source string `json:"source,omitempty" yaml:"source,omitempty" bson:"source,omitempty"`

	Extra map[string]any `json:"extra,omitempty" yaml:"extra,omitempty" bson:"extra,omitempty"`
}

// StageProduction marks a market report describing a fielded product.
const StageProduction = "PRODUCTION"

// MarketReport is an industry or investment report record. It is the
// pipeline's proxy for adoption and funding.
type MarketReport struct {
	ID      string `json:"id" yaml:"id" bson:"reportId"`
	Title   string `json:"title" yaml:"title" bson:"title"`
	Summary string `json:"summary" yaml:"summary" bson:"summary"`
	Year    int    `json:"year" yaml:"year" bson:"year"`
	Sector  string `json:"sector,omitempty" yaml:"sector,omitempty" bson:"sector,omitempty"`
	Region  string `json:"region,omitempty" yaml:"region,omitempty" bson:"region,omitempty"`

	// FundingAmount is the investment volume the report attributes to the
	// technology, in USD.
	FundingAmount float64 `json:"funding_amount" yaml:"funding_amount" bson:"fundingAmount"`

	// Stage is the market stage marker (e.g. "RESEARCH", "PILOT", "PRODUCTION").
	Stage string `json:"stage,omitempty" yaml:"stage,omitempty" bson:"stage,omitempty"`

	PublishedOn time.Time `json:"published_on,omitzero" yaml:"published_on,omitempty" bson:"publishedOn,omitempty"`

	Extra map[string]any `json:"extra,omitempty" yaml:"extra,omitempty" bson:"extra,omitempty"`
}
