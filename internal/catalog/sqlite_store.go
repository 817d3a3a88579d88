package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"animagif/internal/logging"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// SQLiteStore keeps recordings in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (and if needed creates) the database file at dbPath.
// The parent directory must already exist.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	logging.Info("Catalog database path: %s", dbPath)

	// busy_timeout helps prevent "database is locked" errors
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{db: db, dbPath: dbPath}
	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS recordings (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		source_video_path TEXT NOT NULL,
		exported_gif_path TEXT NOT NULL DEFAULT '',
		duration REAL NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_recordings_created_at ON recordings(created_at);
	`
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// List returns the recordings whose videos still exist, newest first.
// Recordings created in the same instant keep insertion order reversed.
func (s *SQLiteStore) List(ctx context.Context) ([]Recording, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, source_video_path, exported_gif_path, duration
		FROM recordings
		ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query recordings: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Warn("failed to close rows: %v", err)
		}
	}()

	recordings := []Recording{}
	for rows.Next() {
		var (
			r         Recording
			id        string
			createdAt int64
		)
		if err := rows.Scan(&id, &createdAt, &r.SourceVideoPath, &r.ExportedGIFPath, &r.Duration); err != nil {
			return nil, fmt.Errorf("failed to scan recording: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			logging.Warn("Catalog: skipping recording with invalid id %q: %v", id, err)
			continue
		}
		r.ID = parsed
		r.CreatedAt = time.Unix(0, createdAt)
		recordings = append(recordings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recordings: %w", err)
	}

	return existing(recordings), nil
}

// Insert adds r.
func (s *SQLiteStore) Insert(ctx context.Context, r Recording) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recordings (id, created_at, source_video_path, exported_gif_path, duration)
		VALUES (?, ?, ?, ?, ?)`,
		r.ID.String(), r.CreatedAt.UnixNano(), r.SourceVideoPath, r.ExportedGIFPath, r.Duration)
	if err != nil {
		return fmt.Errorf("failed to insert recording: %w", err)
	}
	return nil
}

// Update replaces the stored fields of r.
func (s *SQLiteStore) Update(ctx context.Context, r Recording) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE recordings
		SET created_at = ?, source_video_path = ?, exported_gif_path = ?, duration = ?
		WHERE id = ?`,
		r.CreatedAt.UnixNano(), r.SourceVideoPath, r.ExportedGIFPath, r.Duration, r.ID.String())
	if err != nil {
		return fmt.Errorf("failed to update recording: %w", err)
	}
	return requireRow(res)
}

// Delete removes the recording with id.
func (s *SQLiteStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recordings WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete recording: %w", err)
	}
	return requireRow(res)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
