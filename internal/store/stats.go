package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath        string        `json:"db_path"`
	DBSizeBytes   int64         `json:"db_size_bytes"`
	TotalEvents   int           `json:"total_events"`
	DoseEvents    int           `json:"dose_events"`
	JournalEvents int           `json:"journal_events"`
	Substances    int           `json:"substances"`
	First         string        `json:"first,omitempty"`
	Last          string        `json:"last,omitempty"`
	Sources       []SourceStats `json:"sources"`
}

// SourceStats holds per-source counts.
type SourceStats struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	// DB file size
	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(CASE WHEN kind = 'dose' THEN 1 END),
		       COUNT(CASE WHEN kind = 'journal' THEN 1 END),
		       COUNT(DISTINCT CASE WHEN kind = 'dose' THEN lower(substance) END),
		       COALESCE(MIN(ts), ''), COALESCE(MAX(ts), '')
		FROM events`).Scan(&st.TotalEvents, &st.DoseEvents, &st.JournalEvents, &st.Substances, &st.First, &st.Last)
	if err != nil {
		return st, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT source, COUNT(*) AS cnt
		FROM events GROUP BY source ORDER BY cnt DESC, source`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var src SourceStats
		if err := rows.Scan(&src.Source, &src.Count); err != nil {
			return st, err
		}
		st.Sources = append(st.Sources, src)
	}

	return st, rows.Err()
}
