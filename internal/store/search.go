package store

import (
	"context"
	"time"

	"github.com/rcliao/doselog/internal/model"
)

// SearchParams holds parameters for searching events.
type SearchParams struct {
	Query string
	Kind  model.Kind
	Start time.Time
	End   time.Time
	Limit int
}

// Search finds events whose substances, notes, tags or journal text contain
// the query substring, most recent first.
func (s *SQLiteStore) Search(ctx context.Context, p SearchParams) ([]StoredEvent, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	where, args, err := filterClause(p.Start, p.End, p.Kind)
	if err != nil {
		return nil, err
	}
	where = append(where, "text LIKE ?")
	args = append(args, "%"+p.Query+"%", limit)

	query := `SELECT ` + eventColumns + ` FROM events` + whereSQL(where) + ` ORDER BY ts DESC, rowid DESC LIMIT ?`
	return s.queryEvents(ctx, query, args...)
}
