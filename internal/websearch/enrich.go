// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package websearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-shiori/go-readability"

	"github.com/pdiddy/course-engine/pkg/types"
)

const (
	defaultSnippetChars = 500
	maxPageBytes        = 5 << 20
)

// Enricher fills empty result snippets from the readable text of the page.
type Enricher struct {
	Client       *http.Client
	UserAgent    string
	SnippetChars int
}

// Enrich fetches the page of every result with an empty snippet and sets the
// snippet to the page excerpt, or the start of its text. Pages that cannot be
// fetched are reported to w and left as they are. It returns the number of
// results filled.
func (e *Enricher) Enrich(ctx context.Context, results []types.WebResult, w io.Writer) int {
	filled := 0
	for i := range results {
		if results[i].Snippet != "" || results[i].URL == "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		snippet, err := e.fetch(ctx, results[i].URL)
		if err != nil {
			fmt.Fprintf(w, "warning: enriching %s: %v\n", results[i].URL, err)
			continue
		}
		if snippet != "" {
			results[i].Snippet = snippet
			filled++
		}
	}
	return filled
}

func (e *Enricher) fetch(ctx context.Context, rawURL string) (string, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	if e.UserAgent != "" {
		req.Header.Set("User-Agent", e.UserAgent)
	}

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned HTTP %d", resp.StatusCode)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxPageBytes), pageURL)
	if err != nil {
		return "", fmt.Errorf("extracting article: %w", err)
	}

	n := e.SnippetChars
	if n <= 0 {
		n = defaultSnippetChars
	}
	if text := cleanText(article.Excerpt); text != "" {
		return truncate(text, n), nil
	}
	return truncate(cleanText(article.TextContent), n), nil
}
