// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/trl-engine/internal/httputil"
	"github.com/pdiddy/trl-engine/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// OpenAlexBackend fetches scholarly works.
type OpenAlexBackend struct {
	Client *http.Client

	// Email is sent as mailto for polite pool access.
	Email string

	UserAgent  string
	MaxRetries int
}

func (b *OpenAlexBackend) Name() string { return "openalex" }

// Fetch runs a relevance search for the technology.
func (b *OpenAlexBackend) Fetch(ctx context.Context, q Query) (Batch, error) {
	params := url.Values{
		"search":   {q.Technology},
		"per_page": {strconv.Itoa(clampResults(q.MaxResults, 100, 200))},
		"page":     {"1"},
	}
	if q.FromYear > 0 {
		params.Set("filter", fmt.Sprintf("from_publication_date:%04d-01-01", q.FromYear))
	}
	if b.Email != "" {
		params.Set("mailto", b.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return Batch{}, fmt.Errorf("creating request: %w", err)
	}
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, b.MaxRetries)
	if err != nil {
		return Batch{}, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Batch{}, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return Batch{}, fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	pubs := make([]types.Publication, 0, len(oar.Results))
	for _, work := range oar.Results {
		p := types.Publication{
			ID:            strings.TrimPrefix(work.ID, "https://openalex.org/"),
			Title:         work.Title,
			Abstract:      reconstructAbstract(work.AbstractInvertedIndex),
			Year:          work.PublicationYear,
			DOI:           strings.TrimPrefix(work.DOI, "https://doi.org/"),
			CitationCount: work.CitedByCount,
			Source:        "openalex",
		}
		if p.Year == 0 {
			p.Year = yearOf(work.PublicationDate)
		}
		if work.PrimaryLocation.Source != nil {
			p.Journal = work.PrimaryLocation.Source.DisplayName
		}
		for _, a := range work.Authorships {
			if a.Author.DisplayName != "" {
				p.Authors = append(p.Authors, a.Author.DisplayName)
			}
		}
		pubs = append(pubs, p)
	}
	return Batch{Publications: pubs}, nil
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index, which
// maps each word to its positions, back to plain text.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].pos < pairs[j].pos })

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationDate       string               `json:"publication_date"`
	PublicationYear       int                  `json:"publication_year"`
	CitedByCount          int                  `json:"cited_by_count"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	PrimaryLocation       openAlexLocation     `json:"primary_location"`
}

type openAlexAuthorship struct {
	Author struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

type openAlexLocation struct {
	Source *struct {
		DisplayName string `json:"display_name"`
	} `json:"source"`
}
