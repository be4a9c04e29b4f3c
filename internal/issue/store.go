// Package issue keeps the local issue cache the browser works from.
package issue

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"jiratui/internal/model"
)

// ErrNotFound is returned for keys absent from the store.
var ErrNotFound = errors.New("issue not found")

type cacheFile struct {
	Issues []model.Issue `yaml:"issues"`
}

// Store is an in-memory issue list backed by a YAML file. It is used only
// from the UI event loop and is not safe for concurrent use.
type Store struct {
	path   string
	issues []model.Issue
}

// Load reads the cache at path. A missing file yields an empty store that
// Save will create.
func Load(path string) (*Store, error) {
	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read issues: %w", err)
	}
	var f cacheFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	s.issues = f.Issues
	return s, nil
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// List returns a copy of all issues in file order.
func (s *Store) List() []model.Issue {
	out := make([]model.Issue, len(s.issues))
	copy(out, s.issues)
	return out
}

// Get returns the issue with the given key.
func (s *Store) Get(key string) (model.Issue, error) {
	for _, i := range s.issues {
		if i.Key == key {
			return i, nil
		}
	}
	return model.Issue{}, fmt.Errorf("%s: %w", key, ErrNotFound)
}

// Description returns the plain-text description of key.
func (s *Store) Description(key string) (string, error) {
	i, err := s.Get(key)
	if err != nil {
		return "", err
	}
	return i.Description, nil
}

// SetDescription replaces the description of key in memory. Call Save to
// persist it.
func (s *Store) SetDescription(key, content string) error {
	for idx := range s.issues {
		if s.issues[idx].Key == key {
			s.issues[idx].Description = content
			return nil
		}
	}
	return fmt.Errorf("%s: %w", key, ErrNotFound)
}

// Save writes the store back to its file, replacing it atomically.
func (s *Store) Save() error {
	data, err := yaml.Marshal(cacheFile{Issues: s.issues})
	if err != nil {
		return fmt.Errorf("encode issues: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".issues-*.yaml")
	if err != nil {
		return fmt.Errorf("save issues: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save issues: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save issues: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("save issues: %w", err)
	}
	return nil
}
