// Package library persists recording metadata in SQLite and answers
// list/search queries for the API. Media files stay on disk; the store
// only holds what ffprobe and the filesystem report about them.
package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// ErrNotFound indicates no recording exists under the requested id.
var ErrNotFound = errors.New("recording not found")

// Kind labels how a recording came to exist.
const (
	KindRecording = "recording"
	KindReplay    = "replay"
	KindExport    = "export"
)

// Recording is one library entry.
type Recording struct {
	ID              string    `json:"id"`
	Path            string    `json:"path"`
	Title           string    `json:"title"`
	Kind            string    `json:"kind"`
	CreatedAt       time.Time `json:"created_at"`
	DurationSeconds float64   `json:"duration_seconds"`
	Width           int       `json:"width"`
	Height          int       `json:"height"`
	SizeBytes       int64     `json:"size_bytes"`
	Thumbnail       string    `json:"thumbnail,omitempty"`
}

// Store is the SQLite-backed recordings index.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database and applies the schema. WAL
// mode and a busy timeout keep concurrent API reads from tripping over
// the indexer's writes.
func NewStore(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return store, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS recordings (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		title TEXT NOT NULL,
		kind TEXT NOT NULL DEFAULT 'recording',
		created_at TEXT NOT NULL,
		duration_seconds REAL NOT NULL DEFAULT 0,
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		size_bytes INTEGER NOT NULL DEFAULT 0,
		thumbnail TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_recordings_created ON recordings(created_at);

	CREATE VIRTUAL TABLE IF NOT EXISTS recordings_fts USING fts5(
		title, path, content='recordings', content_rowid='rowid'
	);

	CREATE TRIGGER IF NOT EXISTS recordings_ai AFTER INSERT ON recordings BEGIN
		INSERT INTO recordings_fts(rowid, title, path) VALUES (new.rowid, new.title, new.path);
	END;
	CREATE TRIGGER IF NOT EXISTS recordings_ad AFTER DELETE ON recordings BEGIN
		INSERT INTO recordings_fts(recordings_fts, rowid, title, path) VALUES ('delete', old.rowid, old.title, old.path);
	END;
	CREATE TRIGGER IF NOT EXISTS recordings_au AFTER UPDATE ON recordings BEGIN
		INSERT INTO recordings_fts(recordings_fts, rowid, title, path) VALUES ('delete', old.rowid, old.title, old.path);
		INSERT INTO recordings_fts(rowid, title, path) VALUES (new.rowid, new.title, new.path);
	END;
	`
	_, err := s.db.Exec(schema)
	return err
}

// Add inserts a recording.
func (s *Store) Add(ctx context.Context, rec Recording) error {
	const query = `
	INSERT INTO recordings (id, path, title, kind, created_at, duration_seconds, width, height, size_bytes, thumbnail)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Path, rec.Title, rec.Kind,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		rec.DurationSeconds, rec.Width, rec.Height, rec.SizeBytes, rec.Thumbnail)
	if err != nil {
		return fmt.Errorf("insert recording: %w", err)
	}
	return nil
}

// List returns all recordings, newest first.
func (s *Store) List(ctx context.Context) ([]Recording, error) {
	const query = `
	SELECT id, path, title, kind, created_at, duration_seconds, width, height, size_bytes, thumbnail
	FROM recordings ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	defer rows.Close()
	return scanRecordings(rows)
}

// Search runs a full-text query over titles and paths, newest first. An
// empty query falls back to List.
func (s *Store) Search(ctx context.Context, query string) ([]Recording, error) {
	if query == "" {
		return s.List(ctx)
	}

	const sqlQuery = `
	SELECT r.id, r.path, r.title, r.kind, r.created_at, r.duration_seconds, r.width, r.height, r.size_bytes, r.thumbnail
	FROM recordings r
	JOIN recordings_fts f ON r.rowid = f.rowid
	WHERE recordings_fts MATCH ?
	ORDER BY r.created_at DESC`

	rows, err := s.db.QueryContext(ctx, sqlQuery, ftsQuery(query))
	if err != nil {
		return nil, fmt.Errorf("search recordings: %w", err)
	}
	defer rows.Close()
	return scanRecordings(rows)
}

// Get returns one recording by id.
func (s *Store) Get(ctx context.Context, id string) (Recording, error) {
	const query = `
	SELECT id, path, title, kind, created_at, duration_seconds, width, height, size_bytes, thumbnail
	FROM recordings WHERE id = ?`

	row := s.db.QueryRowContext(ctx, query, id)
	rec, err := scanRecording(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Recording{}, ErrNotFound
	}
	if err != nil {
		return Recording{}, fmt.Errorf("get recording: %w", err)
	}
	return rec, nil
}

// Remove deletes a recording entry and, when deleteFile is set, the media
// file and its thumbnail. A media file already gone from disk does not
// fail the removal.
func (s *Store) Remove(ctx context.Context, id string, deleteFile bool) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM recordings WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete recording: %w", err)
	}

	if deleteFile {
		if err := os.Remove(rec.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("delete media file: %w", err)
		}
		if rec.Thumbnail != "" {
			if err := os.Remove(rec.Thumbnail); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("delete thumbnail: %w", err)
			}
		}
	}
	return nil
}

func scanRecordings(rows *sql.Rows) ([]Recording, error) {
	var recs []Recording
	for rows.Next() {
		rec, err := scanRecording(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func scanRecording(scan func(...any) error) (Recording, error) {
	var rec Recording
	var createdAt string
	err := scan(&rec.ID, &rec.Path, &rec.Title, &rec.Kind, &createdAt,
		&rec.DurationSeconds, &rec.Width, &rec.Height, &rec.SizeBytes, &rec.Thumbnail)
	if err != nil {
		return Recording{}, err
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return rec, nil
}

// ftsQuery quotes the user's text as a prefix phrase so FTS5 operators in
// it cannot break the query.
func ftsQuery(query string) string {
	escaped := ""
	for _, r := range query {
		if r == '"' {
			escaped += `""`
		} else {
			escaped += string(r)
		}
	}
	return `"` + escaped + `"*`
}
