// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session keeps short-lived per-educator state for the HTTP API: the
// last request, an uploaded reference PDF and the last generated outline.
package session

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/pdiddy/course-engine/internal/outline"
	"github.com/pdiddy/course-engine/pkg/types"
)

// Defaults used when the configuration leaves a field zero.
const (
	DefaultTTL      = 30 * time.Minute
	DefaultCapacity = 256
)

// ErrNotFound is returned for unknown or expired session IDs.
var ErrNotFound = errors.New("session not found")

// ErrTooLarge is returned when an upload exceeds the configured limit.
var ErrTooLarge = errors.New("upload exceeds size limit")

// Session is a snapshot of one session's state.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Request *types.CourseRequest `json:"request,omitempty"`
	PDFName string               `json:"pdf_name,omitempty"`
	PDFPath string               `json:"-"`
	Result  *outline.Result      `json:"-"`

	dir string
}

// HasOutline reports whether an outline has been generated in this session.
func (s Session) HasOutline() bool { return s.Result != nil && s.Result.Outline != nil }

// Manager is the session table. Entries expire TTL after their last update
// and the least recently used entry is evicted once Capacity is reached;
// either way the session's upload directory is removed.
type Manager struct {
	mu      sync.Mutex
	cache   *expirable.LRU[string, *Session]
	tempDir string
	now     func() time.Time
}

// NewManager builds a session table from cfg.
func NewManager(cfg types.SessionConfig) *Manager {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	m := &Manager{tempDir: cfg.TempDir, now: time.Now}
	m.cache = expirable.NewLRU(capacity, func(_ string, s *Session) {
		if s.dir != "" {
			os.RemoveAll(s.dir)
		}
	}, ttl)
	return m
}

// Create starts a new empty session.
func (m *Manager) Create() Session {
	now := m.now().UTC()
	s := &Session{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Add(s.ID, s)
	return *s
}

// Get returns a snapshot of session id.
func (m *Manager) Get(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.cache.Get(id)
	if !ok {
		return Session{}, ErrNotFound
	}
	return *s, nil
}

// Update applies fn to session id and refreshes its expiry. fn runs under
// the table lock and must not call back into the Manager.
func (m *Manager) Update(id string, fn func(*Session) error) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.cache.Get(id)
	if !ok {
		return Session{}, ErrNotFound
	}
	next := *s
	if err := fn(&next); err != nil {
		return *s, err
	}
	next.UpdatedAt = m.now().UTC()
	*s = next
	m.cache.Add(id, s)
	return next, nil
}

// AttachPDF stores the upload r under the session's temp directory,
// replacing any previous upload. At most maxBytes are accepted when
// maxBytes > 0.
func (m *Manager) AttachPDF(id, name string, r io.Reader, maxBytes int64) (Session, error) {
	if _, err := m.Get(id); err != nil {
		return Session{}, err
	}

	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == "/" || base == "" {
		base = "upload.pdf"
	}

	return m.Update(id, func(s *Session) error {
		dir := s.dir
		if dir == "" {
			d, err := os.MkdirTemp(m.tempDir, "course-session-")
			if err != nil {
				return fmt.Errorf("creating session directory: %w", err)
			}
			dir = d
		}
		path := filepath.Join(dir, base)
		if err := writeLimited(path, r, maxBytes); err != nil {
			if s.dir == "" {
				os.RemoveAll(dir)
			}
			return err
		}
		if s.PDFPath != "" && s.PDFPath != path {
			os.Remove(s.PDFPath)
		}
		s.dir = dir
		s.PDFName = base
		s.PDFPath = path
		return nil
	})
}

func writeLimited(path string, r io.Reader, maxBytes int64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating upload file: %w", err)
	}
	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("writing upload: %w", err)
	}
	if maxBytes > 0 && n > maxBytes {
		os.Remove(path)
		return ErrTooLarge
	}
	return nil
}

// Cleanup removes session id and its uploads.
func (m *Manager) Cleanup(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.Remove(id)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.Len()
}
