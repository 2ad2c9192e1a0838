// Package local provides the on-device durability floor for Lunar Nova.
//
// State lives in a single SQLite database holding a small key-value table:
// one key for the serialized project collection, one for the manual sync
// identifier, one for the UI theme. The collection blob is written
// wholesale after every mutation and read once at startup; it is a mirror
// of the in-memory store, never a second source of truth.
package local

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/lunarnova/nova/internal/project"
)

// Well-known keys in the kv table.
const (
	KeyProjects         = "projects"
	KeyManualIdentifier = "manual-uid"
	KeyAnonIdentifier   = "anon-uid"
	KeyTheme            = "theme"
)

// DB wraps the SQLite connection backing local persistence.
type DB struct {
	conn   *sql.DB
	path   string
	logger *log.Logger
}

// Open creates or opens the local database at path.
//
// The database is opened in embedded mode with WAL so a dashboard process
// can read while a CLI command writes. The caller must Close when done.
func Open(path string, logger *log.Logger) (*DB, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "[local] ", log.LstdFlags)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn, path: path, logger: logger}

	if _, err := db.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := db.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Close checkpoints and closes the database.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		db.logger.Printf("Warning: failed to checkpoint WAL: %v", err)
	}
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	db.conn = nil
	return nil
}

// Path returns the database file location.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Get reads the raw value for key. The second return reports presence.
func (db *DB) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := db.conn.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, true, nil
}

// Put overwrites the value for key.
func (db *DB) Put(ctx context.Context, key, value string) error {
	query := `
	INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		updated_at = excluded.updated_at
	`
	_, err := db.conn.ExecContext(ctx, query, key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Missing keys are not an error.
func (db *DB) Delete(ctx context.Context, key string) error {
	if _, err := db.conn.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// SaveCollection serializes the full collection and overwrites the stored
// blob. A failure here is reported to the caller but the in-memory store
// remains authoritative for the session.
func (db *DB) SaveCollection(ctx context.Context, c project.Collection) error {
	if c == nil {
		c = project.Collection{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize collection: %w", err)
	}
	return db.Put(ctx, KeyProjects, string(data))
}

// LoadCollection reads the stored collection blob. A missing or unparsable
// blob yields an empty collection: corruption degrades to a fresh start,
// it is never fatal and no partial recovery is attempted.
func (db *DB) LoadCollection(ctx context.Context) (project.Collection, error) {
	raw, ok, err := db.Get(ctx, KeyProjects)
	if err != nil {
		return nil, err
	}
	if !ok {
		return project.Collection{}, nil
	}

	var c project.Collection
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		db.logger.Printf("Warning: stored collection is unreadable, starting empty: %v", err)
		return project.Collection{}, nil
	}
	for _, p := range c {
		if p != nil {
			p.SetDefaults()
		}
	}
	return c, nil
}

// ManualIdentifier returns the stored manual sync identifier, if any.
func (db *DB) ManualIdentifier(ctx context.Context) (string, bool, error) {
	return db.Get(ctx, KeyManualIdentifier)
}

// SetManualIdentifier persists a manual sync identifier. It takes effect on
// the next session; callers are responsible for telling the user so.
func (db *DB) SetManualIdentifier(ctx context.Context, id string) error {
	return db.Put(ctx, KeyManualIdentifier, id)
}

// ClearManualIdentifier removes the manual identifier override.
func (db *DB) ClearManualIdentifier(ctx context.Context) error {
	return db.Delete(ctx, KeyManualIdentifier)
}

// AnonIdentifier returns the previously issued anonymous identifier, if any.
func (db *DB) AnonIdentifier(ctx context.Context) (string, bool, error) {
	return db.Get(ctx, KeyAnonIdentifier)
}

// SetAnonIdentifier records an issued anonymous identifier so later
// sessions reuse the same identity instead of orphaning the remote document.
func (db *DB) SetAnonIdentifier(ctx context.Context, id string) error {
	return db.Put(ctx, KeyAnonIdentifier, id)
}

// Theme returns the stored theme preference, or "" when unset.
func (db *DB) Theme(ctx context.Context) (string, error) {
	v, _, err := db.Get(ctx, KeyTheme)
	return v, err
}

// SetTheme persists the theme preference.
func (db *DB) SetTheme(ctx context.Context, theme string) error {
	return db.Put(ctx, KeyTheme, theme)
}
