// Package profile persists named click configurations, one JSON file per
// profile name.
package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const fileExt = ".json"

var ErrInvalidName = errors.New("invalid profile name")

// PersistenceError wraps any failure to list, read, write or remove a
// profile. The store is left unchanged when one is returned.
type PersistenceError struct {
	Op   string
	Name string
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s profiles: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s profile %q: %v", e.Op, e.Name, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("profile directory is empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, &PersistenceError{Op: "open", Err: err}
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// List returns the stored profile names in lexicographic order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), fileExt))
	}
	sort.Strings(names)
	return names, nil
}

// Save creates or overwrites the profile stored under name.
func (s *Store) Save(name string, p Profile) error {
	path, err := s.path(name)
	if err != nil {
		return &PersistenceError{Op: "save", Name: name, Err: err}
	}
	name = strings.TrimSpace(name)

	data, err := Encode(p)
	if err != nil {
		return &PersistenceError{Op: "save", Name: name, Err: err}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return &PersistenceError{Op: "save", Name: name, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return &PersistenceError{Op: "save", Name: name, Err: err}
	}
	return nil
}

func (s *Store) Load(name string) (Profile, error) {
	path, err := s.path(name)
	if err != nil {
		return Profile{}, &PersistenceError{Op: "load", Name: name, Err: err}
	}
	name = strings.TrimSpace(name)

	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, &PersistenceError{Op: "load", Name: name, Err: err}
	}
	p, err := Decode(data)
	if err != nil {
		return Profile{}, &PersistenceError{Op: "load", Name: name, Err: fmt.Errorf("corrupt profile %s: %w", path, err)}
	}
	return p, nil
}

func (s *Store) Delete(name string) error {
	path, err := s.path(name)
	if err != nil {
		return &PersistenceError{Op: "delete", Name: name, Err: err}
	}
	if err := os.Remove(path); err != nil {
		return &PersistenceError{Op: "delete", Name: strings.TrimSpace(name), Err: err}
	}
	return nil
}

func (s *Store) path(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return "", ErrInvalidName
	}
	return filepath.Join(s.dir, name+fileExt), nil
}
