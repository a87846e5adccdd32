// Package store provides the event storage interface and SQLite implementation.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/rcliao/doselog/internal/model"
)

// ErrNotFound is returned when no stored event matches.
var ErrNotFound = errors.New("not found")

// StoredEvent is an event together with its storage metadata.
type StoredEvent struct {
	ID        string      `json:"id"`
	Source    string      `json:"source"`
	CreatedAt time.Time   `json:"created_at"`
	Event     model.Event `json:"event"`
}

// ImportResult counts the events written by an import. Events whose
// canonical key is already stored are skipped.
type ImportResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Removed  int `json:"removed,omitempty"`
}

// ListParams holds parameters for listing events.
type ListParams struct {
	Start time.Time // inclusive; zero means unbounded
	End   time.Time // exclusive; zero means unbounded
	Kind  model.Kind
	// Substance names, or "#tag" entries matching tagged doses.
	Substances []string
	Limit      int // 0 means no limit
}

// Store defines the event storage interface.
type Store interface {
	// Import stores events read from source, skipping already stored ones.
	Import(ctx context.Context, events []model.Event, source string) (ImportResult, error)

	// ReplaceSource drops every event of source and stores events instead.
	ReplaceSource(ctx context.Context, source string, events []model.Event) (ImportResult, error)

	// RemoveSource drops every event of source.
	RemoveSource(ctx context.Context, source string) (int, error)

	// Get retrieves one event by id.
	Get(ctx context.Context, id string) (*StoredEvent, error)

	// List lists events matching the given filters, oldest first.
	List(ctx context.Context, p ListParams) ([]StoredEvent, error)

	// Close closes the store.
	Close() error
}
