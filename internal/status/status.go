// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package status maps numeric TRL scores to discrete maturity labels.
//
// Bands are half-open on the real line:
//
//	score < 4        Research     (band 0, TRL 1-3)
//	4 <= score < 7   Development  (band 1, TRL 4-6)
//	score >= 7       Deployed     (band 2, TRL 7-9)
//
// Scores outside 1-9 fall into the nearest band. NaN maps to Research.
package status

import (
	"math"

	"github.com/pdiddy/trl-engine/pkg/types"
)

const (
	developmentFloor = 4.0
	deployedFloor    = 7.0
)

var labels = [...]types.Status{
	types.StatusResearch,
	types.StatusDevelopment,
	types.StatusDeployed,
}

// Band returns the band index for score: 0, 1, or 2.
func Band(score float64) int {
	switch {
	case score >= deployedFloor:
		return 2
	case score >= developmentFloor:
		return 1
	default:
		return 0
	}
}

// FromScore returns the status label for score. It never panics.
func FromScore(score float64) types.Status {
	return labels[Band(score)]
}

// Labels returns every status label in band order.
func Labels() []types.Status {
	return labels[:]
}

// Bucket names used by the distribution report.
const (
	Bucket12 = "TRL 1-2"
	Bucket34 = "TRL 3-4"
	Bucket56 = "TRL 5-6"
	Bucket78 = "TRL 7-8"
	Bucket9  = "TRL 9"
)

// Buckets returns the distribution bucket names in ascending order.
func Buckets() []string {
	return []string{Bucket12, Bucket34, Bucket56, Bucket78, Bucket9}
}

// TRLBucket groups a score into a two-level distribution bucket after
// rounding to the nearest level and clamping to 1-9.
func TRLBucket(score float64) string {
	level := 1.0
	if !math.IsNaN(score) {
		level = math.Min(9, math.Max(1, math.Round(score)))
	}
	switch {
	case level >= 9:
		return Bucket9
	case level >= 7:
		return Bucket78
	case level >= 5:
		return Bucket56
	case level >= 3:
		return Bucket34
	default:
		return Bucket12
	}
}
