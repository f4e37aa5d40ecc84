// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"sort"

	"github.com/pdiddy/trl-engine/internal/status"
	"github.com/pdiddy/trl-engine/pkg/types"
)

// bucketCounts groups scores into the fixed TRL buckets. Every bucket is
// present in the output, in ascending order, even when its count is zero.
func bucketCounts(scores []float64) []types.BucketCount {
	counts := make(map[string]int)
	for _, s := range scores {
		counts[status.TRLBucket(s)]++
	}

	buckets := status.Buckets()
	out := make([]types.BucketCount, len(buckets))
	for i, b := range buckets {
		out[i] = types.BucketCount{TRL: b, Count: counts[b]}
	}
	return out
}

// yearlyMeans averages record scores per calendar year of CreatedAt,
// ascending by year.
func yearlyMeans(records []types.AssessmentRecord) []types.YearScore {
	type acc struct {
		sum float64
		n   int
	}
	byYear := make(map[int]*acc)
	for _, r := range records {
		y := r.CreatedAt.UTC().Year()
		a, ok := byYear[y]
		if !ok {
			a = &acc{}
			byYear[y] = a
		}
		a.sum += r.TRLScore
		a.n++
	}

	out := make([]types.YearScore, 0, len(byYear))
	for y, a := range byYear {
		out = append(out, types.YearScore{Year: y, TRL: a.sum / float64(a.n)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

func historyLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	return limit
}
