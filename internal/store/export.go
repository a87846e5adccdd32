package store

import (
	"context"

	"github.com/rcliao/doselog/internal/model"
)

// ExportAll returns every stored event, oldest first.
func (s *SQLiteStore) ExportAll(ctx context.Context) ([]model.Event, error) {
	stored, err := s.queryEvents(ctx, `SELECT `+eventColumns+` FROM events ORDER BY ts, rowid`)
	if err != nil {
		return nil, err
	}
	return Events(stored), nil
}

// Events returns the events of stored rows.
func Events(stored []StoredEvent) []model.Event {
	events := make([]model.Event, len(stored))
	for i, ev := range stored {
		events[i] = ev.Event
	}
	return events
}
