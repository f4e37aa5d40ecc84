// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package features

import (
	"math"
	"strings"
)

// Tier is a group of stage-indicating words sharing one weight.
type Tier struct {
	Name     string
	Weight   float64
	Keywords []string
}

// DefaultTiers returns the research, development and mature tiers.
func DefaultTiers() []Tier {
	return []Tier{
		{Name: "research", Weight: 0.1, Keywords: []string{"concept", "feasibility", "simulation"}},
		{Name: "development", Weight: 0.3, Keywords: []string{"prototype", "demonstration", "pilot"}},
		{Name: "mature", Weight: 0.6, Keywords: []string{"operational", "deployed", "fielded"}},
	}
}

// DefaultNormalizer divides the raw keyword sum.
const DefaultNormalizer = 50.0

// KeywordScore scans abstracts for tier keywords. Each keyword present in
// an abstract adds its tier weight once; the sum is divided by normalizer
// and clamped to [0, 1].
func KeywordScore(abstracts []string, tiers []Tier, normalizer float64) float64 {
	if normalizer <= 0 {
		normalizer = DefaultNormalizer
	}

	var raw float64
	for _, a := range abstracts {
		text := strings.ToLower(a)
		for _, tier := range tiers {
			for _, k := range tier.Keywords {
				if strings.Contains(text, strings.ToLower(k)) {
					raw += tier.Weight
				}
			}
		}
	}

	return clamp01(raw / normalizer)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}
