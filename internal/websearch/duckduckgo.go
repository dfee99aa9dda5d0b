// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package websearch

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tmc/langchaingo/tools/duckduckgo"

	"github.com/pdiddy/course-engine/pkg/types"
)

// toolCaller is the part of a langchaingo tool the backend uses.
type toolCaller interface {
	Call(ctx context.Context, input string) (string, error)
}

// DuckDuckGoBackend searches DuckDuckGo's HTML endpoint through the
// langchaingo tool and parses its text output back into results.
type DuckDuckGoBackend struct {
	tool toolCaller
}

// NewDuckDuckGoBackend creates a backend returning up to maxResults hits.
// A nil client uses the tool's default transport.
func NewDuckDuckGoBackend(maxResults int, userAgent string, client *http.Client) (*DuckDuckGoBackend, error) {
	if userAgent == "" {
		userAgent = duckduckgo.DefaultUserAgent
	}
	var opts []duckduckgo.Option
	if client != nil {
		opts = append(opts, duckduckgo.WithHTTPClient(client))
	}
	tool, err := duckduckgo.New(maxResults, userAgent, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating duckduckgo tool: %w", err)
	}
	return &DuckDuckGoBackend{tool: tool}, nil
}

// Name returns the backend identifier.
func (b *DuckDuckGoBackend) Name() string { return "duckduckgo" }

// Search runs the query.
func (b *DuckDuckGoBackend) Search(ctx context.Context, query Query, _ types.WebSearchConfig) ([]types.WebResult, error) {
	out, err := b.tool.Call(ctx, query.String())
	if err != nil {
		return nil, fmt.Errorf("duckduckgo search: %w", err)
	}
	return parseDuckDuckGo(out), nil
}

const ddgNoResults = "No good DuckDuckGo Search Results"

// parseDuckDuckGo reads the tool's "Title:/Description:/URL:" blocks.
func parseDuckDuckGo(out string) []types.WebResult {
	if strings.HasPrefix(strings.TrimSpace(out), ddgNoResults) {
		return nil
	}
	var results []types.WebResult
	for _, block := range strings.Split(out, "\n\n") {
		var r types.WebResult
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "Title:"):
				r.Title = strings.TrimSpace(strings.TrimPrefix(line, "Title:"))
			case strings.HasPrefix(line, "Description:"):
				r.Snippet = strings.TrimSpace(strings.TrimPrefix(line, "Description:"))
			case strings.HasPrefix(line, "URL:"):
				r.URL = strings.TrimSpace(strings.TrimPrefix(line, "URL:"))
			}
		}
		if r.Title == "" && r.URL == "" {
			continue
		}
		r.Backend = "duckduckgo"
		results = append(results, r)
	}
	return results
}
