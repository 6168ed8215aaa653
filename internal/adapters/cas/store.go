// Package cas implements the lockfile store.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultPath is the lockfile name, written next to the manifest.
const DefaultPath = "kiln.lock"

var (
	_ ports.LockStore        = (*Store)(nil)
	_ ports.LockStoreFactory = Factory{}
)

// Factory opens the lockfile of a manifest directory.
type Factory struct{}

// ForDir returns the store for the lockfile in dir.
func (Factory) ForDir(dir string) ports.LockStore {
	return NewStore(filepath.Join(dir, DefaultPath))
}

// lockDocument is the on-disk layout of the lockfile.
type lockDocument struct {
	Version  int                        `json:"version"`
	Profiles map[string]domain.Lockfile `json:"profiles"`
}

// Store implements ports.LockStore using a flat JSON file keyed by profile.
// The file is read on the first Get or Put.
type Store struct {
	path    string
	mu      sync.RWMutex
	cache   map[string]domain.Lockfile
	once    sync.Once
	loadErr error
}

// NewStore creates a new LockStore backed by the file at the given path.
func NewStore(path string) *Store {
	return &Store{
		path:  filepath.Clean(path),
		cache: make(map[string]domain.Lockfile),
	}
}

// Path returns the lockfile location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) ensureLoaded() error {
	s.once.Do(func() { s.loadErr = s.load() })
	return s.loadErr
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.With(zerr.Wrap(err, "failed to read lockfile"), "path", s.path)
	}

	if len(data) == 0 {
		return nil
	}

	var doc lockDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to unmarshal lockfile"), "path", s.path)
	}
	if doc.Version > domain.LockfileVersion {
		err := zerr.With(zerr.New("lockfile written by a newer version"), "path", s.path)
		return zerr.With(err, "version", doc.Version)
	}
	for profile, lock := range doc.Profiles {
		s.cache[profile] = lock
	}

	return nil
}

func (s *Store) save() error {
	s.mu.RLock()
	doc := lockDocument{Version: domain.LockfileVersion, Profiles: s.cache}
	data, err := json.MarshalIndent(doc, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return zerr.Wrap(err, "failed to marshal lockfile")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return zerr.Wrap(err, "failed to create directory for lockfile")
	}

	// Replace atomically.
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*")
	if err != nil {
		return zerr.Wrap(err, "failed to create temporary lockfile")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // Already renamed on success

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, "failed to write lockfile")
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "failed to write lockfile")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to replace lockfile"), "path", s.path)
	}

	return nil
}

// Get retrieves the lockfile recorded for a profile.
func (s *Store) Get(profile string) (*domain.Lockfile, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	lock, ok := s.cache[profile]
	if !ok {
		return nil, nil
	}
	return &lock, nil
}

// Put stores the lockfile under its profile and persists the whole file.
func (s *Store) Put(lock domain.Lockfile) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[lock.Profile] = lock
	s.mu.Unlock()

	return s.save()
}
