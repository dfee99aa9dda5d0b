// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package websearch

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/course-engine/internal/httputil"
	"github.com/pdiddy/course-engine/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

const arxivSnippetChars = 400

// ArxivBackend queries the arXiv API for scholarly references.
type ArxivBackend struct {
	Client *http.Client
}

// Name returns the backend identifier.
func (b *ArxivBackend) Name() string { return "arxiv" }

// Search queries the arXiv Atom API.
func (b *ArxivBackend) Search(ctx context.Context, query Query, cfg types.WebSearchConfig) ([]types.WebResult, error) {
	q := buildArxivQuery(query)
	if q == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	u := fmt.Sprintf("%s?search_query=%s&start=0&max_results=%d&sortBy=relevance&sortOrder=descending",
		arxivAPIBase, q, maxResults)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	var results []types.WebResult
	for _, e := range feed.Entries {
		link := strings.TrimSpace(e.ID)
		title := strings.Join(strings.Fields(e.Title), " ")
		if link == "" || title == "" {
			continue
		}
		results = append(results, types.WebResult{
			Title:   title,
			Snippet: truncate(strings.Join(strings.Fields(e.Summary), " "), arxivSnippetChars),
			URL:     link,
			Backend: "arxiv",
		})
	}
	return results, nil
}

// buildArxivQuery ANDs every term of the query as an all-fields match.
func buildArxivQuery(q Query) string {
	var terms []string
	for _, t := range strings.Fields(q.String()) {
		terms = append(terms, "all:"+url.QueryEscape(t))
	}
	return strings.Join(terms, "+AND+")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID      string `xml:"id"`
	Title   string `xml:"title"`
	Summary string `xml:"summary"`
}
