// Package state persists the small amount of local state the tool needs
// between runs: OAuth tokens, the selected Search Console property, and a
// history of executed queries. Backed by SQLite with embedded migrations.
package state

import (
	"time"

	"golang.org/x/oauth2"
)

// HistoryEntry is one executed query, recorded after a successful fetch.
type HistoryEntry struct {
	ID         string    `json:"id"`
	Descriptor string    `json:"descriptor"` // canonical descriptor as JSON
	RowCount   int       `json:"rowCount"`
	ExecutedAt time.Time `json:"executedAt"`
}

// Store is the persistence boundary consumed by the CLI and server.
type Store interface {
	// Tokens.
	SaveToken(account string, token *oauth2.Token) error
	Token(account string) (*oauth2.Token, error)
	DeleteToken(account string) error

	// Site selection.
	SelectSite(siteURL string) error
	SelectedSite() (string, error)

	// Query history.
	RecordQuery(descriptorJSON string, rowCount int) (*HistoryEntry, error)
	History(limit int) ([]HistoryEntry, error)

	Close() error
}
