// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

const exportLimit = 100000

// ExportYAML writes the library to <dir>/index/export.yaml and returns the
// path written. It supports the same filters as Retrieve.
func (s *Store) ExportYAML(ctx context.Context, q Query) (string, error) {
	docs, err := s.exportDocuments(ctx, q)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(docs)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	path := filepath.Join(s.dir, indexDir, "export.yaml")
	return path, os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the library to <dir>/index/export.json and returns the
// path written. It supports the same filters as Retrieve.
func (s *Store) ExportJSON(ctx context.Context, q Query) (string, error) {
	docs, err := s.exportDocuments(ctx, q)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	path := filepath.Join(s.dir, indexDir, "export.json")
	return path, os.WriteFile(path, data, 0o644)
}

func (s *Store) exportDocuments(ctx context.Context, q Query) ([]Document, error) {
	q.Limit = exportLimit
	docs, err := s.Retrieve(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	if docs == nil {
		docs = []Document{}
	}
	return docs, nil
}
