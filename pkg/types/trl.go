// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// FeatureSet is the numeric summary of a technology's activity over the
// trailing five-year window. It is computed fresh for every assessment and
// embedded verbatim in the assessment record.
type FeatureSet struct {
	// PatentCount5y is the number of matching patents in the window.
	PatentCount5y int `json:"patent_count_5y" yaml:"patent_count_5y" bson:"patent_count_5y"`

	// PatentGrowthRate is (late - early) / max(early, 1) over the two
	// halves of the window.
	PatentGrowthRate float64 `json:"patent_growth_rate" yaml:"patent_growth_rate" bson:"patent_growth_rate"`

	// AvgCitations is the mean citation count of matching patents.
	AvgCitations float64 `json:"avg_citations" yaml:"avg_citations" bson:"avg_citations"`

	PaperCount5y int `json:"paper_count_5y" yaml:"paper_count_5y" bson:"paper_count_5y"`

	// ResearchIntensity is log(1 + PaperCount5y).
	ResearchIntensity float64 `json:"research_intensity" yaml:"research_intensity" bson:"research_intensity"`

	IndustryMentions int     `json:"industry_mentions" yaml:"industry_mentions" bson:"industry_mentions"`
	FundingTotal     float64 `json:"funding_total" yaml:"funding_total" bson:"funding_total"`
	FundingTrend     float64 `json:"funding_trend" yaml:"funding_trend" bson:"funding_trend"`

	// MaturityKeywordScore is the saturating keyword heuristic, in [0, 1].
	MaturityKeywordScore float64 `json:"maturity_keyword_score" yaml:"maturity_keyword_score" bson:"maturity_keyword_score"`

	// DeploymentIndicator is 1 when any matching market report is in
	// production, else 0.
	DeploymentIndicator int `json:"deployment_indicator" yaml:"deployment_indicator" bson:"deployment_indicator"`
}

// Reasoning is the scorer's explanation of a TRL score.
type Reasoning struct {
	PatentTrend      string `json:"patent_trend" yaml:"patent_trend" bson:"patent_trend"`
	ResearchDensity  string `json:"research_density" yaml:"research_density" bson:"research_density"`
	IndustryAdoption string `json:"industry_adoption" yaml:"industry_adoption" bson:"industry_adoption"`
	FundingSupport   string `json:"funding_support" yaml:"funding_support" bson:"funding_support"`
}

// Status is the discrete maturity label derived from a TRL score.
type Status string

const (
	StatusResearch    Status = "Research"
	StatusDevelopment Status = "Development"
	StatusDeployed    Status = "Deployed"
)

// Assessment is the result of one pipeline run for a technology.
type Assessment struct {
	Technology string     `json:"technology" yaml:"technology" bson:"technology"`
	TRLScore   float64    `json:"trl_score" yaml:"trl_score" bson:"trl_score"`
	Status     Status     `json:"status" yaml:"status" bson:"status"`
	Confidence float64    `json:"confidence" yaml:"confidence" bson:"confidence"`
	Reasoning  Reasoning  `json:"reasoning" yaml:"reasoning" bson:"reasoning"`
	Features   FeatureSet `json:"features" yaml:"features" bson:"features"`
}

// AssessmentRecord is an Assessment as persisted in the history log.
// Records are append-only and never modified after they are written.
type AssessmentRecord struct {
	ID         string    `json:"id" yaml:"id" bson:"id"`
	Assessment `yaml:",inline" bson:",inline"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at" bson:"createdAt"`
}

// BucketCount is one bar of the TRL distribution report.
type BucketCount struct {
	TRL   string `json:"trl" yaml:"trl"`
	Count int    `json:"count" yaml:"count"`
}

// YearScore is one point of a technology's TRL progression.
type YearScore struct {
	Year int     `json:"year" yaml:"year"`
	TRL  float64 `json:"trl" yaml:"trl"`
}
