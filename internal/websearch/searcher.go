// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package websearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"unicode"

	"github.com/pdiddy/course-engine/pkg/types"
)

// maxKeywords bounds how many description words are added to a course query.
const maxKeywords = 4

// NewBackends builds the configured backends in fallback order. Tavily is
// left out when no API key is configured.
func NewBackends(cfg types.WebSearchConfig, client *http.Client) ([]Backend, error) {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	var backends []Backend
	for _, name := range cfg.Backends {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "tavily":
			if cfg.TavilyAPIKey == "" {
				continue
			}
			backends = append(backends, &TavilyBackend{Client: client})
		case "duckduckgo", "ddg":
			b, err := NewDuckDuckGoBackend(max(cfg.MaxResults, DefaultMaxResults), cfg.UserAgent, client)
			if err != nil {
				return nil, err
			}
			backends = append(backends, b)
		case "arxiv":
			backends = append(backends, &ArxivBackend{Client: client})
		default:
			return nil, fmt.Errorf("unknown web search backend %q (supported: tavily, duckduckgo, arxiv)", name)
		}
	}
	return backends, nil
}

// Searcher runs the web channel for a course request.
type Searcher struct {
	Backends []Backend
	Config   types.WebSearchConfig

	// Enricher, when set, fills empty snippets after searching.
	Enricher *Enricher

	// Log receives backend warnings. Nil discards them.
	Log io.Writer
}

// Search queries the backends with the course title and a few keywords from
// the description.
func (s *Searcher) Search(ctx context.Context, req *types.CourseRequest) (*types.WebSearchResults, error) {
	if req == nil {
		return nil, fmt.Errorf("no course request")
	}
	w := s.Log
	if w == nil {
		w = io.Discard
	}

	q := CourseQuery(req)
	out, err := Search(ctx, q, s.Backends, s.Config, w)
	if err != nil {
		return nil, err
	}
	if s.Enricher != nil {
		s.Enricher.Enrich(ctx, out.Results, w)
	}
	return &types.WebSearchResults{Query: out.Query, Results: out.Results}, nil
}

var queryStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "of": true, "to": true,
	"in": true, "on": true, "for": true, "with": true, "this": true, "that": true,
	"course": true, "students": true, "learners": true, "will": true, "learn": true,
	"how": true, "is": true, "are": true, "be": true, "by": true, "from": true,
	"their": true, "into": true, "about": true, "covers": true, "introduces": true,
}

// CourseQuery builds a web query from the course title plus the most frequent
// significant words of the description that the title does not already use.
func CourseQuery(req *types.CourseRequest) Query {
	title := strings.TrimSpace(req.CourseTitle)
	inTitle := make(map[string]bool)
	for _, w := range words(title) {
		inTitle[w] = true
	}

	counts := make(map[string]int)
	var order []string
	for _, w := range words(req.CourseDescription) {
		if len(w) < 4 || queryStopWords[w] || inTitle[w] {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}
	return Query{Text: title, Keywords: order}
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
