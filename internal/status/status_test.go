// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package status

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/trl-engine/pkg/types"
)

func TestFromScore(t *testing.T) {
	tests := []struct {
		score float64
		want  types.Status
	}{
		{1, types.StatusResearch},
		{3, types.StatusResearch},
		{3.99, types.StatusResearch},
		{4, types.StatusDevelopment},
		{6.5, types.StatusDevelopment},
		{7, types.StatusDeployed},
		{9, types.StatusDeployed},
		{9.5, types.StatusDeployed},
		{42, types.StatusDeployed},
		{0, types.StatusResearch},
		{-3, types.StatusResearch},
		{math.Inf(1), types.StatusDeployed},
		{math.Inf(-1), types.StatusResearch},
		{math.NaN(), types.StatusResearch},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FromScore(tt.score), "score %v", tt.score)
	}
}

func TestBand_Monotonic(t *testing.T) {
	prev := Band(-100)
	for s := -100.0; s <= 100; s += 0.25 {
		b := Band(s)
		assert.GreaterOrEqual(t, b, prev, "band decreased at score %v", s)
		prev = b
	}
}

func TestLabels_MatchBands(t *testing.T) {
	labels := Labels()
	assert.Len(t, labels, 3)
	assert.Equal(t, labels[Band(2)], FromScore(2))
	assert.Equal(t, labels[Band(5)], FromScore(5))
	assert.Equal(t, labels[Band(8)], FromScore(8))
}

func TestTRLBucket(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{1, Bucket12},
		{2.4, Bucket12},
		{2.5, Bucket34},
		{4, Bucket34},
		{5.2, Bucket56},
		{7.9, Bucket78},
		{8.6, Bucket9},
		{12, Bucket9},
		{-1, Bucket12},
		{math.NaN(), Bucket12},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TRLBucket(tt.score), "score %v", tt.score)
	}
}
