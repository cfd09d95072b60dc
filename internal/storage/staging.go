package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/starford/notesplit/internal/models"
)

// Staging is a Provider that keeps writes in memory on top of a base
// Provider. Staged files are listed and read as if they were on disk until
// Commit flushes them. A Staging is not safe for concurrent use.
type Staging struct {
	base   Provider
	files  map[string][]byte
	order  []string
	staged time.Time
}

// NewStaging returns an empty Staging over base.
func NewStaging(base Provider) *Staging {
	return &Staging{base: base, files: make(map[string][]byte), staged: time.Now()}
}

// List merges the base listing with the staged files under dir.
func (s *Staging) List(dir string) ([]models.NoteMetadata, error) {
	metas, err := s.base.List(dir)
	if err != nil {
		return nil, err
	}
	prefix := dirPrefix(dir)
	seen := make(map[string]int, len(metas))
	for i, m := range metas {
		seen[m.Path] = i
	}
	for _, p := range s.order {
		if !strings.HasPrefix(p, prefix) || !strings.HasSuffix(p, ".md") {
			continue
		}
		m := models.NoteMetadata{Path: p, Checksum: Checksum(s.files[p]), UpdatedAt: s.staged}
		if i, ok := seen[p]; ok {
			metas[i] = m
			continue
		}
		metas = append(metas, m)
	}
	return metas, nil
}

// Paths merges the base paths with the staged files under dir.
func (s *Staging) Paths(dir string) ([]string, error) {
	paths, err := s.base.Paths(dir)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		seen[p] = true
	}
	prefix := dirPrefix(dir)
	for _, p := range s.order {
		if seen[p] || !strings.HasPrefix(p, prefix) || !strings.HasSuffix(p, ".md") {
			continue
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// Read returns the staged content of path, falling back to the base.
func (s *Staging) Read(path string) ([]byte, error) {
	if data, ok := s.files[path]; ok {
		return data, nil
	}
	return s.base.Read(path)
}

// Write stages content for path.
func (s *Staging) Write(path string, content []byte) error {
	if _, ok := s.files[path]; !ok {
		s.order = append(s.order, path)
	}
	s.files[path] = append([]byte(nil), content...)
	return nil
}

// Exists reports whether path is staged or exists in the base.
func (s *Staging) Exists(path string) (bool, error) {
	if _, ok := s.files[path]; ok {
		return true, nil
	}
	return s.base.Exists(path)
}

// Staged returns the staged paths in the order they were first written.
func (s *Staging) Staged() []string {
	return append([]string(nil), s.order...)
}

// Commit writes every staged file to the base in staging order. Files
// written before a failure stay written.
func (s *Staging) Commit() error {
	for _, p := range s.order {
		if err := s.base.Write(p, s.files[p]); err != nil {
			return fmt.Errorf("storage: commit %s: %w", p, err)
		}
	}
	return nil
}

func dirPrefix(dir string) string {
	prefix := strings.Trim(dir, "/")
	if prefix != "" {
		prefix += "/"
	}
	return prefix
}
