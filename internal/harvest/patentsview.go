// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/trl-engine/internal/httputil"
	"github.com/pdiddy/trl-engine/pkg/types"
)

// patentsViewSearchBase is the PatentsView patent search endpoint. Declared
// as a var so tests can substitute an httptest server.
var patentsViewSearchBase = "https://search.patentsview.org/api/v1/patent/"

var patentsViewFields = []string{
	"patent_id",
	"patent_title",
	"patent_abstract",
	"patent_date",
	"patent_num_times_cited_by_us_patents",
}

// PatentsViewBackend fetches US patents.
type PatentsViewBackend struct {
	Client     *http.Client
	APIKey     string
	UserAgent  string
	MaxRetries int
}

func (b *PatentsViewBackend) Name() string { return "patentsview" }

// Fetch searches titles and abstracts for the technology phrase.
func (b *PatentsViewBackend) Fetch(ctx context.Context, q Query) (Batch, error) {
	query, err := buildPatentsViewQuery(q)
	if err != nil {
		return Batch{}, err
	}
	fields, _ := json.Marshal(patentsViewFields)
	options, _ := json.Marshal(map[string]int{"size": clampResults(q.MaxResults, 100, 1000)})

	params := url.Values{
		"q": {query},
		"f": {string(fields)},
		"o": {string(options)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, patentsViewSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return Batch{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}
	if b.APIKey != "" {
		req.Header.Set("X-Api-Key", b.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, b.MaxRetries)
	if err != nil {
		return Batch{}, fmt.Errorf("PatentsView API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Batch{}, fmt.Errorf("PatentsView API returned HTTP %d", resp.StatusCode)
	}

	var pvr patentsViewResponse
	if err := json.NewDecoder(resp.Body).Decode(&pvr); err != nil {
		return Batch{}, fmt.Errorf("parsing PatentsView response: %w", err)
	}

	patents := make([]types.Patent, 0, len(pvr.Patents))
	for _, p := range pvr.Patents {
		patents = append(patents, types.Patent{
			ID:            "US" + p.PatentID,
			Title:         p.PatentTitle,
			Abstract:      p.PatentAbstract,
			Year:          yearOf(p.PatentDate),
			Country:       "US",
			CitationCount: p.TimesCited,
			Source:        "patentsview",
		})
	}
	return Batch{Patents: patents}, nil
}

// buildPatentsViewQuery matches the phrase in title or abstract, optionally
// bounded by grant date.
func buildPatentsViewQuery(q Query) (string, error) {
	text := map[string]any{"_or": []any{
		map[string]any{"_text_phrase": map[string]string{"patent_title": q.Technology}},
		map[string]any{"_text_phrase": map[string]string{"patent_abstract": q.Technology}},
	}}

	var query any = text
	if q.FromYear > 0 {
		query = map[string]any{"_and": []any{
			text,
			map[string]any{"_gte": map[string]string{"patent_date": fmt.Sprintf("%04d-01-01", q.FromYear)}},
		}}
	}

	data, err := json.Marshal(query)
	if err != nil {
		return "", fmt.Errorf("encoding PatentsView query: %w", err)
	}
	return string(data), nil
}

// yearOf reads the year from a YYYY-MM-DD date.
func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}

type patentsViewResponse struct {
	Patents []patentsViewPatent `json:"patents"`
	Count   int                 `json:"count"`
	Total   int                 `json:"total_hits"`
}

type patentsViewPatent struct {
	PatentID       string `json:"patent_id"`
	PatentTitle    string `json:"patent_title"`
	PatentAbstract string `json:"patent_abstract"`
	PatentDate     string `json:"patent_date"`
	TimesCited     int    `json:"patent_num_times_cited_by_us_patents"`
}
