package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"animagif/internal/filesystem"
)

// ErrNotFound is returned when no recording has the requested ID.
var ErrNotFound = errors.New("recording not found")

// Store persists recordings. List returns the newest recording first.
type Store interface {
	List(ctx context.Context) ([]Recording, error)
	Insert(ctx context.Context, r Recording) error
	Update(ctx context.Context, r Recording) error
	Delete(ctx context.Context, id uuid.UUID) error
	Close() error
}

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// OpenStore opens the named backend inside dataDir.
func OpenStore(ctx context.Context, backend, dataDir string) (Store, error) {
	switch backend {
	case BackendJSON, "":
		return NewJSONStore(filepath.Join(dataDir, "library.json")), nil
	case BackendSQLite:
		return NewSQLiteStore(ctx, filepath.Join(dataDir, "library.db"))
	default:
		return nil, fmt.Errorf("unknown catalog backend %q (want json or sqlite)", backend)
	}
}

// existing drops recordings whose video file is gone.
func existing(recordings []Recording) []Recording {
	kept := recordings[:0]
	for _, r := range recordings {
		if filesystem.Exists(r.SourceVideoPath) {
			kept = append(kept, r)
		}
	}
	return kept
}
