package state

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/statevault/statevault/internal/events"
	"github.com/statevault/statevault/internal/models"
)

// SQLiteStore persists the state as a single signed blob in a SQLite
// database. The table holds exactly one row; saves upsert it.
type SQLiteStore struct {
	db     *sql.DB
	logger *events.Logger
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS app_state (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    payload    BLOB NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

// NewSQLiteStore opens (creating if needed) a SQLite store at path.
func NewSQLiteStore(path string, logger *events.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.WithField("component", "sqlite_state_store"),
	}, nil
}

// Exists implements Store.
func (s *SQLiteStore) Exists() bool {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM app_state WHERE id = 1`).Scan(&n)
	return err == nil && n > 0
}

// Load implements Store.
func (s *SQLiteStore) Load(password string) (*models.State, error) {
	s.logger.Debug("Loading state")

	var raw []byte
	err := s.db.QueryRow(`SELECT payload FROM app_state WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read state row: %w", err)
	}

	st, err := decodeState(raw, password)
	if err != nil {
		return nil, err
	}

	s.logger.WithField("values", st.CountInitialized()).Debug("State loaded")
	return st, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(st *models.State, password string) error {
	data, err := encodeState(st, password)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
        INSERT INTO app_state (id, payload, updated_at) VALUES (1, ?, ?)
        ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
    `, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("write state row: %w", err)
	}

	s.logger.WithField("bytes", len(data)).Debug("State saved")
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
