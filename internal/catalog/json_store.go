package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"animagif/internal/filesystem"
	"animagif/internal/logging"
)

// JSONStore keeps all recordings in one JSON array, rewritten atomically
// on every change.
type JSONStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONStore uses the file at path. A missing file is an empty catalog.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the backing file.
func (s *JSONStore) Path() string { return s.path }

// List returns the recordings whose videos still exist.
func (s *JSONStore) List(_ context.Context) ([]Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Insert prepends r.
func (s *JSONStore) Insert(_ context.Context, r Recording) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recordings, err := s.load()
	if err != nil {
		return err
	}
	return s.persist(append([]Recording{r}, recordings...))
}

// Update replaces the recording with r's ID.
func (s *JSONStore) Update(_ context.Context, r Recording) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recordings, err := s.load()
	if err != nil {
		return err
	}
	for i := range recordings {
		if recordings[i].ID == r.ID {
			recordings[i] = r
			return s.persist(recordings)
		}
	}
	return ErrNotFound
}

// Delete removes the recording with id.
func (s *JSONStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recordings, err := s.load()
	if err != nil {
		return err
	}
	for i := range recordings {
		if recordings[i].ID == id {
			return s.persist(append(recordings[:i], recordings[i+1:]...))
		}
	}
	return ErrNotFound
}

// Close is a no-op.
func (s *JSONStore) Close() error { return nil }

func (s *JSONStore) load() ([]Recording, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Recording{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var recordings []Recording
	if err := json.Unmarshal(data, &recordings); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", s.path, err)
	}

	kept := existing(recordings)
	if dropped := len(recordings) - len(kept); dropped > 0 {
		logging.Debug("Catalog: skipping %d recordings with missing videos", dropped)
	}
	return kept, nil
}

func (s *JSONStore) persist(recordings []Recording) error {
	data, err := json.MarshalIndent(recordings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	if err := filesystem.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save catalog: %w", err)
	}
	return nil
}
