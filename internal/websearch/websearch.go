// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package websearch queries web and scholarly search backends for pages that
// ground a course outline, and returns sanitized, deduplicated results.
package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"

	"github.com/pdiddy/course-engine/pkg/types"
)

// DefaultMaxResults caps merged results when the config leaves it unset.
const DefaultMaxResults = 5

// Backend searches a single provider. Backends are tried in configured order.
type Backend interface {
	Name() string
	Search(ctx context.Context, query Query, cfg types.WebSearchConfig) ([]types.WebResult, error)
}

// Query holds the search terms.
type Query struct {
	Text     string
	Keywords []string
}

// IsEmpty reports whether the query contains no searchable terms.
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.String()) == ""
}

// String joins the free text and keywords into one query line.
func (q Query) String() string {
	parts := make([]string, 0, 1+len(q.Keywords))
	if t := strings.TrimSpace(q.Text); t != "" {
		parts = append(parts, t)
	}
	for _, kw := range q.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			parts = append(parts, kw)
		}
	}
	return strings.Join(parts, " ")
}

// Output holds merged results and per-backend diagnostics.
type Output struct {
	Query         string            `json:"query"`
	Results       []types.WebResult `json:"results"`
	DupsRemoved   int               `json:"dups_removed,omitempty"`
	BackendErrors []string          `json:"backend_errors,omitempty"`
}

// ErrAllBackendsFailed is returned when no backend produced a response.
var ErrAllBackendsFailed = errors.New("all web search backends failed")

// Search tries backends in order and accumulates results until MaxResults
// distinct results are collected. A failing backend is recorded and the next
// one is tried. Text fields are stripped of markup before deduplication.
func Search(ctx context.Context, query Query, backends []Backend, cfg types.WebSearchConfig, w io.Writer) (Output, error) {
	if query.IsEmpty() {
		return Output{}, fmt.Errorf("query is empty")
	}
	if len(backends) == 0 {
		return Output{}, fmt.Errorf("no web search backends configured")
	}
	limit := cfg.MaxResults
	if limit <= 0 {
		limit = DefaultMaxResults
	}

	out := Output{Query: query.String()}
	var all []types.WebResult
	failed := 0

	for _, b := range backends {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		results, err := b.Search(ctx, query, cfg)
		if err != nil {
			failed++
			out.BackendErrors = append(out.BackendErrors, fmt.Sprintf("%s: %v", b.Name(), err))
			fmt.Fprintf(w, "warning: backend %s failed: %v\n", b.Name(), err)
			continue
		}
		for _, r := range results {
			if r.Backend == "" {
				r.Backend = b.Name()
			}
			all = append(all, sanitize(r))
		}
		deduped, _ := deduplicate(all)
		if len(deduped) >= limit {
			break
		}
	}

	if failed == len(backends) {
		return out, fmt.Errorf("%w: %s", ErrAllBackendsFailed, strings.Join(out.BackendErrors, "; "))
	}

	out.Results, out.DupsRemoved = deduplicate(all)
	if len(out.Results) > limit {
		out.Results = out.Results[:limit]
	}
	return out, nil
}

// deduplicate drops results that repeat a URL or a normalized title. The
// first occurrence wins; an empty snippet is filled from the duplicate.
func deduplicate(results []types.WebResult) ([]types.WebResult, int) {
	seen := make(map[string]int)
	var deduped []types.WebResult
	removed := 0

	for _, r := range results {
		keys := dedupKeys(r)
		idx, dup := -1, false
		for _, k := range keys {
			if i, ok := seen[k]; ok {
				idx, dup = i, true
				break
			}
		}
		if dup {
			if deduped[idx].Snippet == "" {
				deduped[idx].Snippet = r.Snippet
			}
			removed++
			continue
		}
		if len(keys) == 0 {
			continue
		}
		idx = len(deduped)
		deduped = append(deduped, r)
		for _, k := range keys {
			seen[k] = idx
		}
	}
	return deduped, removed
}

func dedupKeys(r types.WebResult) []string {
	var keys []string
	if u := normalizeURL(r.URL); u != "" {
		keys = append(keys, "url:"+u)
	}
	if t := normalizeTitle(r.Title); t != "" {
		keys = append(keys, "title:"+t)
	}
	return keys
}

func normalizeURL(u string) string {
	u = strings.TrimSpace(strings.ToLower(u))
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimPrefix(u, "www.")
	return strings.TrimRight(u, "/")
}

// normalizeTitle returns a lowercased, punctuation-stripped version of the title.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

var strict = bluemonday.StrictPolicy()

// cleanText removes markup and collapses whitespace. StrictPolicy escapes
// entities in its output, so the result is unescaped back to plain text.
func cleanText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(strict.Sanitize(s))), " ")
}

func sanitize(r types.WebResult) types.WebResult {
	r.Title = cleanText(r.Title)
	r.Snippet = cleanText(r.Snippet)
	r.URL = strings.TrimSpace(r.URL)
	return r
}

// FormatTable writes results as a human-readable table to w.
func FormatTable(out Output, w io.Writer) {
	if len(out.Results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-50s  %-10s  %s\n", "Rank", "Title", "Backend", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for i, r := range out.Results {
		fmt.Fprintf(w, "%-4d  %-50s  %-10s  %s\n", i+1, truncate(r.Title, 50), r.Backend, r.URL)
	}

	fmt.Fprintf(w, "\n%d results", len(out.Results))
	if out.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", out.DupsRemoved)
	}
	fmt.Fprintln(w)
	for _, e := range out.BackendErrors {
		fmt.Fprintf(w, "backend error: %s\n", e)
	}
}

// FormatJSON writes results as indented JSON to w.
func FormatJSON(out Output, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
