package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/worldgen/internal/field"
)

const manifestName = "manifest.yaml"

// FileStore keeps one file per artifact in a directory, plus a YAML
// manifest listing them.
type FileStore struct {
	dir string
	mu  sync.Mutex // serialises manifest updates
}

type manifest struct {
	Entries []manifestEntry `yaml:"entries"`
}

type manifestEntry struct {
	Stage       string    `yaml:"stage"`
	Fingerprint string    `yaml:"fingerprint"`
	File        string    `yaml:"file"`
	Width       int       `yaml:"width"`
	Height      int       `yaml:"height"`
	CreatedAt   time.Time `yaml:"created_at"`
}

// NewFileStore opens (creating if needed) a file store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store's directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// path names the artifact file by stage and the full fingerprint, so
// fingerprints sharing a prefix never share a file.
func (s *FileStore) path(key Key) (string, error) {
	name := key.Stage + "-" + key.Fingerprint + ".field"
	if key.Stage == "" || key.Fingerprint == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid artifact key %q/%q", key.Stage, key.Fingerprint)
	}
	return filepath.Join(s.dir, name), nil
}

// Load reads the artifact for key.
func (s *FileStore) Load(ctx context.Context, key Key) (*field.ScalarField, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	f, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return f, nil
}

// Save writes the artifact atomically and records it in the manifest.
func (s *FileStore) Save(ctx context.Context, key Key, f *field.ScalarField) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(key)
	if err != nil {
		return err
	}
	data, err := encode(f)
	if err != nil {
		return err
	}
	err = WriteFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.readManifest()
	if err != nil {
		return err
	}
	entry := manifestEntry{
		Stage:       key.Stage,
		Fingerprint: key.Fingerprint,
		File:        filepath.Base(path),
		Width:       f.Width,
		Height:      f.Height,
		CreatedAt:   time.Now().UTC(),
	}
	replaced := false
	for i, e := range m.Entries {
		if e.Stage == key.Stage && e.Fingerprint == key.Fingerprint {
			m.Entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		m.Entries = append(m.Entries, entry)
	}
	return s.writeManifest(m)
}

// List returns the manifest entries ordered by stage, then fingerprint.
func (s *FileStore) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	m, err := s.readManifest()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(m.Entries))
	for _, e := range m.Entries {
		entries = append(entries, Entry{
			Key:       Key{Stage: e.Stage, Fingerprint: e.Fingerprint},
			Width:     e.Width,
			Height:    e.Height,
			CreatedAt: e.CreatedAt,
		})
	}
	sortEntries(entries)
	return entries, nil
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) readManifest() (*manifest, error) {
	m := &manifest{}
	data, err := os.ReadFile(filepath.Join(s.dir, manifestName))
	if errors.Is(err, os.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return m, nil
}

func (s *FileStore) writeManifest(m *manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return WriteFileAtomic(filepath.Join(s.dir, manifestName), func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Stage != entries[j].Stage {
			return entries[i].Stage < entries[j].Stage
		}
		return entries[i].Fingerprint < entries[j].Fingerprint
	})
}

// WriteFileAtomic writes path through a temporary file in the same
// directory, syncs it and renames it into place. Readers never observe a
// partial file.
func WriteFileAtomic(path string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
