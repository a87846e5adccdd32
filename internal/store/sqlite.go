package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/doselog/internal/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id          TEXT PRIMARY KEY,
		key         TEXT NOT NULL UNIQUE,
		ts          TEXT NOT NULL,
		kind        TEXT NOT NULL,
		substance   TEXT NOT NULL DEFAULT '',
		text        TEXT NOT NULL DEFAULT '',
		data        TEXT NOT NULL,
		source      TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts);
	CREATE INDEX IF NOT EXISTS idx_events_substance ON events(substance COLLATE NOCASE);
	CREATE INDEX IF NOT EXISTS idx_events_source ON events(source);
	`
	_, err := s.db.Exec(schema)
	return err
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

func (s *SQLiteStore) Import(ctx context.Context, events []model.Event, source string) (ImportResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportResult{}, err
	}
	defer tx.Rollback()

	res, err := s.insert(ctx, tx, events, source)
	if err != nil {
		return ImportResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return ImportResult{}, err
	}
	return res, nil
}

func (s *SQLiteStore) ReplaceSource(ctx context.Context, source string, events []model.Event) (ImportResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportResult{}, err
	}
	defer tx.Rollback()

	removed, err := removeSource(ctx, tx, source)
	if err != nil {
		return ImportResult{}, err
	}
	res, err := s.insert(ctx, tx, events, source)
	if err != nil {
		return ImportResult{}, err
	}
	res.Removed = removed
	if err := tx.Commit(); err != nil {
		return ImportResult{}, err
	}
	return res, nil
}

func (s *SQLiteStore) RemoveSource(ctx context.Context, source string) (int, error) {
	return removeSource(ctx, s.db, source)
}

func removeSource(ctx context.Context, ex execer, source string) (int, error) {
	r, err := ex.ExecContext(ctx, `DELETE FROM events WHERE source = ?`, source)
	if err != nil {
		return 0, fmt.Errorf("delete source %s: %w", source, err)
	}
	n, _ := r.RowsAffected()
	return int(n), nil
}

func (s *SQLiteStore) insert(ctx context.Context, ex execer, events []model.Event, source string) (ImportResult, error) {
	stmt, err := ex.PrepareContext(ctx,
		`INSERT OR IGNORE INTO events (id, key, ts, kind, substance, text, data, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return ImportResult{}, err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	var res ImportResult
	for _, e := range events {
		data, err := json.Marshal(e)
		if err != nil {
			return res, fmt.Errorf("encode event: %w", err)
		}
		r, err := stmt.ExecContext(ctx,
			s.newID(), e.Key(), e.Timestamp.Format(model.TimestampLayout), string(e.Kind),
			e.Substance(), searchText(e), string(data), source, now)
		if err != nil {
			return res, fmt.Errorf("insert event: %w", err)
		}
		if n, _ := r.RowsAffected(); n > 0 {
			res.Inserted++
		} else {
			res.Skipped++
		}
	}
	return res, nil
}

// searchText is the text Search matches against: substances, routes, notes,
// tags and journal text.
func searchText(e model.Event) string {
	var parts []string
	if e.Journal != nil {
		parts = append(parts, e.Journal.Text)
	}
	var walk func(d model.DoseEntry)
	walk = func(d model.DoseEntry) {
		parts = append(parts, d.Substance, d.RoA)
		parts = append(parts, d.Notes...)
		parts = append(parts, d.Tags...)
		for _, sub := range d.Subdoses {
			walk(sub)
		}
	}
	if e.Dose != nil {
		walk(*e.Dose)
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

const eventColumns = `id, source, created_at, data`

func (s *SQLiteStore) Get(ctx context.Context, id string) (*StoredEvent, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (s *SQLiteStore) List(ctx context.Context, p ListParams) ([]StoredEvent, error) {
	where, args, err := filterClause(p.Start, p.End, p.Kind)
	if err != nil {
		return nil, err
	}

	if len(p.Substances) > 0 {
		var or []string
		for _, sub := range p.Substances {
			if tag, ok := strings.CutPrefix(sub, "#"); ok {
				or = append(or, `EXISTS (SELECT 1 FROM json_each(events.data, '$.data.tags') t WHERE lower(t.value) = lower(?))`)
				args = append(args, tag)
				continue
			}
			or = append(or, "(kind = 'dose' AND lower(substance) = lower(?))")
			args = append(args, sub)
		}
		where = append(where, "("+strings.Join(or, " OR ")+")")
	}

	query := `SELECT ` + eventColumns + ` FROM events` + whereSQL(where) + ` ORDER BY ts, rowid`
	if p.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, p.Limit)
	}
	return s.queryEvents(ctx, query, args...)
}

// filterClause builds the conditions shared by List and Search.
func filterClause(start, end time.Time, kind model.Kind) ([]string, []any, error) {
	var where []string
	var args []any
	if !start.IsZero() {
		where = append(where, "ts >= ?")
		args = append(args, start.Format(model.TimestampLayout))
	}
	if !end.IsZero() {
		where = append(where, "ts < ?")
		args = append(args, end.Format(model.TimestampLayout))
	}
	if kind != "" {
		if !model.ValidKinds[kind] {
			return nil, nil, fmt.Errorf("invalid kind %q (valid: dose, journal)", kind)
		}
		where = append(where, "kind = ?")
		args = append(args, string(kind))
	}
	return where, args, nil
}

func whereSQL(where []string) string {
	if len(where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(where, " AND ")
}

func (s *SQLiteStore) queryEvents(ctx context.Context, query string, args ...any) ([]StoredEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (StoredEvent, error) {
	var ev StoredEvent
	var createdAt, data string
	if err := row.Scan(&ev.ID, &ev.Source, &createdAt, &data); err != nil {
		return ev, err
	}
	ev.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if err := json.Unmarshal([]byte(data), &ev.Event); err != nil {
		return ev, fmt.Errorf("decode event %s: %w", ev.ID, err)
	}
	return ev, nil
}
