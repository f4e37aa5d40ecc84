// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scorer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/pdiddy/trl-engine/pkg/types"
)

type request struct {
	Technology string           `json:"technology"`
	Features   types.FeatureSet `json:"features"`
}

// Pointer fields distinguish a missing key from a zero value.
type response struct {
	TRLScore   *float64       `json:"trl_score"`
	Confidence *float64       `json:"confidence"`
	Reasoning  *wireReasoning `json:"reasoning"`
}

type wireReasoning struct {
	PatentTrend      *string `json:"patent_trend"`
	ResearchDensity  *string `json:"research_density"`
	IndustryAdoption *string `json:"industry_adoption"`
	FundingSupport   *string `json:"funding_support"`
}

// EncodeRequest renders the request body sent to the scorer.
func EncodeRequest(technology string, features types.FeatureSet) ([]byte, error) {
	data, err := json.Marshal(request{Technology: technology, Features: features})
	if err != nil {
		return nil, fmt.Errorf("encoding scorer request: %w", err)
	}
	return data, nil
}

// DecodeResponse parses a scorer response. Every field of the contract is
// required; a missing one yields ErrMalformedResponse.
func DecodeResponse(data []byte) (Result, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Result{}, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}

	var resp response
	if err := json.Unmarshal(data, &resp); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	var missing []string
	if resp.TRLScore == nil {
		missing = append(missing, "trl_score")
	}
	if resp.Confidence == nil {
		missing = append(missing, "confidence")
	}
	if resp.Reasoning == nil {
		missing = append(missing, "reasoning")
	} else {
		r := resp.Reasoning
		for name, v := range map[string]*string{
			"reasoning.patent_trend":      r.PatentTrend,
			"reasoning.research_density":  r.ResearchDensity,
			"reasoning.industry_adoption": r.IndustryAdoption,
			"reasoning.funding_support":   r.FundingSupport,
		} {
			if v == nil {
				missing = append(missing, name)
			}
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return Result{}, fmt.Errorf("%w: missing %s", ErrMalformedResponse, strings.Join(missing, ", "))
	}

	return Result{
		TRLScore:   *resp.TRLScore,
		Confidence: *resp.Confidence,
		Reasoning: types.Reasoning{
			PatentTrend:      *resp.Reasoning.PatentTrend,
			ResearchDensity:  *resp.Reasoning.ResearchDensity,
			IndustryAdoption: *resp.Reasoning.IndustryAdoption,
			FundingSupport:   *resp.Reasoning.FundingSupport,
		},
	}, nil
}
