// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/pdiddy/course-engine/pkg/types"
)

// Query holds parameters for library lookups.
type Query struct {
	// Text is free text; any of its significant terms may match a
	// document's title or body. Empty Text lists documents.
	Text string

	// Source filters by source file name.
	Source string

	// Limit caps the result count. Zero uses the store default.
	Limit int
}

// Retrieve returns documents matching q ordered by title. Matching is
// term-based; there is no relevance ranking.
func (s *Store) Retrieve(ctx context.Context, q Query) ([]Document, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	match := MatchExpression(q.Text)
	if strings.TrimSpace(q.Text) != "" && match == "" {
		return nil, nil
	}

	if match != "" {
		qb.WriteString(`SELECT d.id, d.source, d.title, d.body, d.url, d.tags
			FROM documents_fts
			JOIN documents d ON d.rowid = documents_fts.docid
			WHERE documents_fts MATCH ?`)
		args = append(args, match)
	} else {
		qb.WriteString(`SELECT d.id, d.source, d.title, d.body, d.url, d.tags
			FROM documents d WHERE 1=1`)
	}
	if q.Source != "" {
		qb.WriteString(` AND d.source = ?`)
		args = append(args, q.Source)
	}
	qb.WriteString(` ORDER BY d.title, d.id LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying library: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			d        Document
			url      sql.NullString
			tagsJSON sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.Source, &d.Title, &d.Content, &url, &tagsJSON); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		d.URL = url.String
		if tagsJSON.Valid {
			json.Unmarshal([]byte(tagsJSON.String), &d.Tags)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Search retrieves documents for a course request, querying on the course
// title. It satisfies the orchestrator's retrieval channel.
func (s *Store) Search(ctx context.Context, req *types.CourseRequest) ([]types.RetrievedDocument, error) {
	docs, err := s.Retrieve(ctx, Query{Text: req.CourseTitle})
	if err != nil {
		return nil, err
	}
	out := make([]types.RetrievedDocument, len(docs))
	for i, d := range docs {
		out[i] = types.RetrievedDocument{Title: d.Title, Content: d.Content, URL: d.URL, Source: d.Source}
	}
	return out, nil
}

var stopWords = map[string]bool{
	"an": true, "to": true, "of": true, "in": true, "on": true, "or": true,
	"and": true, "the": true, "for": true, "with": true, "into": true, "from": true,
	"using": true, "course": true, "introduction": true, "intro": true,
}

// MatchExpression turns free text into an FTS query that matches any of its
// significant terms. Terms are quoted so punctuation in the input cannot be
// read as query syntax. It returns "" when no term survives.
func MatchExpression(text string) string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool)
	var terms []string
	for _, w := range words {
		if len([]rune(w)) < 2 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, `"`+w+`"`)
	}
	return strings.Join(terms, " OR ")
}
