// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdf extracts plain text from uploaded reference documents and
// splits it into prompt-sized excerpts.
package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultChunkSize is the excerpt size used for prompts, in characters.
	DefaultChunkSize = 500

	// DefaultMaxChars bounds how much extracted text is kept per document.
	DefaultMaxChars = 200000
)

// Extractor turns a document on disk into plain text.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// TextExtractor reads Markdown or plain-text files as-is.
type TextExtractor struct{}

// Extract returns the file contents.
func (TextExtractor) Extract(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s is not valid UTF-8 text", path)
	}
	return string(data), nil
}

// AutoExtractor dispatches on file extension: .md and .txt files are read
// directly, everything else goes to PDF. A nil PDF extractor rejects
// non-text files.
type AutoExtractor struct {
	PDF      Extractor
	MaxChars int
}

// Extract picks an extractor for path, runs it, and truncates the result to MaxChars.
func (a *AutoExtractor) Extract(ctx context.Context, path string) (string, error) {
	var ex Extractor
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".txt":
		ex = TextExtractor{}
	default:
		if a.PDF == nil {
			return "", fmt.Errorf("no PDF extractor configured for %s", filepath.Base(path))
		}
		ex = a.PDF
	}

	text, err := ex.Extract(ctx, path)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)

	limit := a.MaxChars
	if limit <= 0 {
		limit = DefaultMaxChars
	}
	if utf8.RuneCountInString(text) > limit {
		text = string([]rune(text)[:limit])
	}
	return text, nil
}

// Chunk splits text into pieces of at most size characters. Paragraphs
// (blank-line separated) are packed together while they fit; a paragraph
// longer than size is cut at the last space before the limit, or hard at
// the limit when it has no spaces.
func Chunk(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}

	var (
		chunks  []string
		current strings.Builder
		curLen  int
	)
	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			curLen = 0
		}
	}

	for _, para := range splitParagraphs(text) {
		for _, piece := range splitLong(para, size) {
			n := utf8.RuneCountInString(piece)
			sep := 0
			if curLen > 0 {
				sep = 2
			}
			if curLen+sep+n > size {
				flush()
				sep = 0
			}
			if sep > 0 {
				current.WriteString("\n\n")
			}
			current.WriteString(piece)
			curLen += sep + n
		}
	}
	flush()
	return chunks
}

func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var paras []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.Join(strings.Fields(p), " ")
		if p != "" {
			paras = append(paras, p)
		}
	}
	return paras
}

func splitLong(para string, size int) []string {
	r := []rune(para)
	var out []string
	for len(r) > size {
		cut := size
		for i := size; i > size/2; i-- {
			if r[i] == ' ' {
				cut = i
				break
			}
		}
		out = append(out, strings.TrimSpace(string(r[:cut])))
		r = []rune(strings.TrimSpace(string(r[cut:])))
	}
	if len(r) > 0 {
		out = append(out, string(r))
	}
	return out
}
