// Package settings implements the durable key/value store that survives
// process restarts. It is the last-known-good projection of the authority
// state into each instance's local storage.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Keys used by the activation core.
const (
	// KeyAppActive holds "true" or "false"; "false" is a local override
	// that wins over any remote decision.
	KeyAppActive = "app_active"
	// KeyAPIKey holds the bearer token presented to the authority.
	KeyAPIKey = "api_key"
	// KeyInstanceID identifies this installation. Generated on first use.
	KeyInstanceID = "instance_id"
)

// ErrNotFound is returned when a setting key does not exist.
var ErrNotFound = errors.New("setting not found")

// Setting is a single durable key/value entry.
type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Store is a sqlite-backed settings store. It is safe for concurrent use;
// the database/sql pool serializes writers.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS app_settings (
	setting_key   TEXT PRIMARY KEY,
	setting_value TEXT NOT NULL,
	updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Open opens (creating if necessary) the settings database at the given
// path and seeds the default activation keys.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create settings directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create settings schema: %w", err)
	}

	store := &Store{db: db}
	if err := store.seedDefaults(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) seedDefaults(ctx context.Context) error {
	defaults := map[string]string{
		KeyAppActive: "true",
		KeyAPIKey:    "",
	}
	for key, value := range defaults {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO app_settings (setting_key, setting_value, updated_at) VALUES (?, ?, ?)`,
			key, value, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", key, err)
		}
	}
	return nil
}

// Get returns the value for the given key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT setting_value FROM app_settings WHERE setting_key = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

// Lookup returns the full entry for the given key, including its
// last-updated timestamp.
func (s *Store) Lookup(ctx context.Context, key string) (*Setting, error) {
	setting := &Setting{Key: key}
	err := s.db.QueryRowContext(ctx,
		`SELECT setting_value, updated_at FROM app_settings WHERE setting_key = ?`, key,
	).Scan(&setting.Value, &setting.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up setting %s: %w", key, err)
	}
	return setting, nil
}

// Put creates or overwrites the value for the given key and advances its
// updated_at timestamp.
func (s *Store) Put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO app_settings (setting_key, setting_value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(setting_key) DO UPDATE SET setting_value = excluded.setting_value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update setting %s: %w", key, err)
	}
	return nil
}

// InstanceID returns the stable identifier for this installation,
// generating and persisting one the first time it is asked for.
func (s *Store) InstanceID(ctx context.Context) (string, error) {
	id, err := s.Get(ctx, KeyInstanceID)
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", err
	}

	uid, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate instance ID: %w", err)
	}
	id = uid.String()
	if err := s.Put(ctx, KeyInstanceID, id); err != nil {
		return "", err
	}
	return id, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
