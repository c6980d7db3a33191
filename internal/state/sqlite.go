package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	// sqlite driver for the local state database.
	_ "modernc.org/sqlite"
)

// ErrNoToken is returned when no token is stored for an account.
var ErrNoToken = errors.New("no stored token")

// ErrNoSite is returned when no property has been selected yet.
var ErrNoSite = errors.New("no site selected")

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the state database at path and runs pending
// migrations. Use ":memory:" for tests.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping state database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing connection without running migrations.
// Used by tests that control the schema themselves.
func NewWithDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveToken upserts the OAuth token for an account as JSON.
func (s *SQLiteStore) SaveToken(account string, token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO tokens (account, token_json, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(account) DO UPDATE SET token_json = excluded.token_json, updated_at = excluded.updated_at`,
		account, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Token loads the stored OAuth token for an account.
func (s *SQLiteStore) Token(account string) (*oauth2.Token, error) {
	var data string
	err := s.db.QueryRow(`SELECT token_json FROM tokens WHERE account = ?`, account).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w for account %s", ErrNoToken, account)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal([]byte(data), &token); err != nil {
		return nil, fmt.Errorf("failed to decode stored token: %w", err)
	}
	return &token, nil
}

// DeleteToken removes the stored token for an account.
func (s *SQLiteStore) DeleteToken(account string) error {
	if _, err := s.db.Exec(`DELETE FROM tokens WHERE account = ?`, account); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// SelectSite persists the active property. There is only ever one.
func (s *SQLiteStore) SelectSite(siteURL string) error {
	if siteURL == "" {
		return fmt.Errorf("site url cannot be empty")
	}
	_, err := s.db.Exec(
		`INSERT INTO sites (id, site_url, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET site_url = excluded.site_url, updated_at = excluded.updated_at`,
		siteURL, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to select site: %w", err)
	}
	return nil
}

// SelectedSite returns the active property, or ErrNoSite.
func (s *SQLiteStore) SelectedSite() (string, error) {
	var siteURL string
	err := s.db.QueryRow(`SELECT site_url FROM sites WHERE id = 1`).Scan(&siteURL)
	if err == sql.ErrNoRows {
		return "", ErrNoSite
	}
	if err != nil {
		return "", fmt.Errorf("failed to load selected site: %w", err)
	}
	return siteURL, nil
}

// RecordQuery appends a history entry for a completed query.
func (s *SQLiteStore) RecordQuery(descriptorJSON string, rowCount int) (*HistoryEntry, error) {
	entry := &HistoryEntry{
		ID:         uuid.New().String(),
		Descriptor: descriptorJSON,
		RowCount:   rowCount,
		ExecutedAt: time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO query_history (id, descriptor_json, row_count, executed_at) VALUES (?, ?, ?, ?)`,
		entry.ID, entry.Descriptor, entry.RowCount, entry.ExecutedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record query: %w", err)
	}
	return entry, nil
}

// History returns the most recent entries, newest first.
func (s *SQLiteStore) History(limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, descriptor_json, row_count, executed_at
		 FROM query_history ORDER BY executed_at DESC, id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.Descriptor, &e.RowCount, &e.ExecutedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return entries, nil
}
