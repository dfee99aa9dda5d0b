// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
)

// RetrievedDocument is a snippet returned by the local reference library.
type RetrievedDocument struct {
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`

	// Source names the library collection the document came from.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// WebResult is a single web search hit.
type WebResult struct {
	Title   string `json:"title" yaml:"title"`
	Snippet string `json:"snippet" yaml:"snippet"`
	URL     string `json:"url" yaml:"url"`

	// Backend identifies which search backend produced the hit (e.g. "tavily").
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
}

// WebSearchResults is the result set of one web search.
type WebSearchResults struct {
	Query   string      `json:"query" yaml:"query"`
	Results []WebResult `json:"results" yaml:"results"`
}

// ExecutionContext carries one validated course request plus whatever
// enrichment the provenance channels supplied. It is built once per request
// and treated as read-only during synthesis.
type ExecutionContext struct {
	ExecutionID string         `json:"execution_id" yaml:"execution_id"`
	SessionID   string         `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	Request     *CourseRequest `json:"request" yaml:"request"`

	RetrievedDocs []RetrievedDocument `json:"retrieved_docs,omitempty" yaml:"retrieved_docs,omitempty"`
	WebResults    *WebSearchResults   `json:"web_results,omitempty" yaml:"web_results,omitempty"`
	PDFText       string              `json:"pdf_text,omitempty" yaml:"pdf_text,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// HasRetrievedDocs reports whether the library channel supplied anything.
func (ec *ExecutionContext) HasRetrievedDocs() bool {
	return len(ec.RetrievedDocs) > 0
}

// HasWebResults reports whether the web channel supplied at least one result.
func (ec *ExecutionContext) HasWebResults() bool {
	return ec.WebResults != nil && len(ec.WebResults.Results) > 0
}

// HasPDFText reports whether non-blank PDF text is present.
func (ec *ExecutionContext) HasPDFText() bool {
	return strings.TrimSpace(ec.PDFText) != ""
}

// ChannelCount returns how many of the three provenance channels are populated.
func (ec *ExecutionContext) ChannelCount() int {
	n := 0
	for _, ok := range []bool{ec.HasRetrievedDocs(), ec.HasWebResults(), ec.HasPDFText()} {
		if ok {
			n++
		}
	}
	return n
}
