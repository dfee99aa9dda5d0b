// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library indexes an educator's reference documents in SQLite and
// serves them to the outline pipeline as retrieved context.
//
// Source files live under <dir>/sources/: Markdown and plain-text files
// become one document each, YAML files hold a list of documents. The index
// lives at <dir>/index/library.db.
package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/course-engine/pkg/types"
)

const (
	sourcesDir = "sources"
	indexDir   = "index"
	dbFile     = "library.db"
)

// Document is one indexed reference document.
type Document struct {
	ID      string   `json:"id" yaml:"id"`
	Source  string   `json:"source" yaml:"source"`
	Title   string   `json:"title" yaml:"title"`
	Content string   `json:"content" yaml:"content"`
	URL     string   `json:"url,omitempty" yaml:"url,omitempty"`
	Tags    []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Store manages the library SQLite database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// NewStore opens or creates the library database at <dir>/index/library.db
// and creates the schema if it does not exist.
func NewStore(cfg types.LibraryConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.Dir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dbDir, dbFile)+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, dir: cfg.Dir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SourcesDir returns the directory Ingest reads from.
func (s *Store) SourcesDir() string {
	return filepath.Join(s.dir, sourcesDir)
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			source TEXT NOT NULL,
			title TEXT NOT NULL,
			body TEXT NOT NULL,
			url TEXT,
			tags TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			source TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='documents_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		return nil
	}

	// FTS4 external-content index kept in sync by triggers.
	ftsStatements := []string{
		`CREATE VIRTUAL TABLE documents_fts USING fts4(content="documents", title, body)`,
		`CREATE TRIGGER documents_bu BEFORE UPDATE ON documents BEGIN
			DELETE FROM documents_fts WHERE docid=old.rowid;
		END`,
		`CREATE TRIGGER documents_bd BEFORE DELETE ON documents BEGIN
			DELETE FROM documents_fts WHERE docid=old.rowid;
		END`,
		`CREATE TRIGGER documents_au AFTER UPDATE ON documents BEGIN
			INSERT INTO documents_fts(docid, title, body) VALUES (new.rowid, new.title, new.body);
		END`,
		`CREATE TRIGGER documents_ai AFTER INSERT ON documents BEGIN
			INSERT INTO documents_fts(docid, title, body) VALUES (new.rowid, new.title, new.body);
		END`,
	}
	for _, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

// IngestSummary holds counts from a library indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of source files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest reads every supported file under <dir>/sources/ and indexes it.
// Files whose modification time is unchanged since the last run are
// skipped; changed files replace their documents. Files that have been
// deleted from sources/ are dropped from the index.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	srcDir := s.SourcesDir()
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading sources directory %s: %w", srcDir, err)
	}

	var summary IngestSummary
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() || !supported(entry.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		source := entry.Name()
		seen[source] = true

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", source, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE source = ?`, source,
		).Scan(&storedModTime)
		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", source)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		docs, err := readSource(filepath.Join(srcDir, source))
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", source, err)
			summary.Failed++
			continue
		}

		if err := s.replaceSource(ctx, source, docs, modTime); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", source, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d documents)\n", source, len(docs))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d documents)\n", source, len(docs))
			summary.Indexed++
		}
	}

	removed, err := s.pruneMissing(ctx, seen)
	if err != nil {
		return summary, err
	}
	for _, src := range removed {
		fmt.Fprintf(w, "removed %s\n", src)
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)
	return summary, nil
}

func (s *Store) replaceSource(ctx context.Context, source string, docs []Document, modTime string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE source = ?`, source); err != nil {
		return fmt.Errorf("deleting old documents: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (id, source, title, body, url, tags) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range docs {
		tagsJSON, _ := json.Marshal(d.Tags)
		if _, err := stmt.ExecContext(ctx, d.ID, source, d.Title, d.Content, d.URL, string(tagsJSON)); err != nil {
			return fmt.Errorf("inserting document %s: %w", d.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (source, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(source) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		source, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}
	return tx.Commit()
}

// pruneMissing drops documents whose source file is no longer present.
func (s *Store) pruneMissing(ctx context.Context, seen map[string]bool) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source FROM indexing_status`)
	if err != nil {
		return nil, fmt.Errorf("listing indexed sources: %w", err)
	}
	var stale []string
	for rows.Next() {
		var src string
		if err := rows.Scan(&src); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		if !seen[src] {
			stale = append(stale, src)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Strings(stale)
	for _, src := range stale {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE source = ?`, src); err != nil {
			return nil, fmt.Errorf("removing %s: %w", src, err)
		}
		if _, err := s.db.ExecContext(ctx, `DELETE FROM indexing_status WHERE source = ?`, src); err != nil {
			return nil, fmt.Errorf("removing %s: %w", src, err)
		}
	}
	return stale, nil
}

func supported(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown", ".txt", ".yaml", ".yml":
		return true
	}
	return false
}

// documentID scopes a YAML document id to its source file so ids only need
// to be unique within one file. Documents without an id are numbered by
// position.
func documentID(source, id string, i int) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Sprintf("%s#%d", source, i+1)
	}
	if strings.HasPrefix(id, source+"#") {
		return id
	}
	return source + "#" + id
}

// readSource parses one source file into documents.
func readSource(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)

	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		var docs []Document
		if err := yaml.Unmarshal(data, &docs); err != nil {
			return nil, fmt.Errorf("parse error: %w", err)
		}
		out := docs[:0]
		for i, d := range docs {
			d.Content = strings.TrimSpace(d.Content)
			if d.Content == "" && d.Title == "" {
				continue
			}
			if d.Title == "" {
				d.Title = d.ID
			}
			d.ID = documentID(name, d.ID, i)
			if d.Title == "" {
				d.Title = d.ID
			}
			d.Source = name
			out = append(out, d)
		}
		return out, nil
	default:
		text := strings.TrimSpace(string(data))
		if text == "" {
			return nil, nil
		}
		return []Document{{
			ID:      name,
			Source:  name,
			Title:   documentTitle(name, text),
			Content: text,
		}}, nil
	}
}

// documentTitle returns the first Markdown heading, or the file name
// without extension.
func documentTitle(name, text string) string {
	if strings.EqualFold(filepath.Ext(name), ".md") || strings.EqualFold(filepath.Ext(name), ".markdown") {
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, "#") {
				if t := strings.TrimSpace(strings.TrimLeft(line, "#")); t != "" {
					return t
				}
			}
		}
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}
