package visits

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/vmunix/vodgate/internal/migrations"
)

// Columns are read through expressions so sqlite never applies its
// declared-type time conversion to the legacy TIMESTAMP column.
const selectColumns = `id, COALESCE(ip, ''), COALESCE(location, 'unknown'), CAST(COALESCE(time, '') AS TEXT),
	COALESCE(endpoint, ''), COALESCE(user_agent, '')`

// Count is a grouped count.
type Count struct {
	Key string `json:"key"`
	N   int64  `json:"count"`
}

// DayCount holds page views and unique visitors for one day.
type DayCount struct {
	Day string `json:"day"` // DayLayout
	PV  int64  `json:"pv"`
	UV  int64  `json:"uv"`
}

// Store provides access to the visits table.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// NewStore creates a new visits store.
func NewStore(db *sql.DB, dialect Dialect) *Store {
	if dialect == "" {
		dialect = DialectSQLite
	}
	return &Store{db: db, dialect: dialect}
}

// Migrate creates the schema and adds the location column to tables
// created before it existed.
func (s *Store) Migrate(ctx context.Context) error {
	schema := migrations.VisitsSQLite
	if s.dialect == DialectPostgres {
		schema = migrations.VisitsPostgres
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return s.ensureLocationColumn(ctx)
}

func (s *Store) ensureLocationColumn(ctx context.Context) error {
	if s.dialect == DialectPostgres {
		if _, err := s.db.ExecContext(ctx, `ALTER TABLE visits ADD COLUMN IF NOT EXISTS location TEXT`); err != nil {
			return fmt.Errorf("add location column: %w", err)
		}
		return nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name FROM pragma_table_info('visits')`)
	if err != nil {
		return fmt.Errorf("inspect visits table: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan column: %w", err)
		}
		if name == "location" {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspect visits table: %w", err)
	}
	_ = rows.Close()

	if _, err := s.db.ExecContext(ctx, `ALTER TABLE visits ADD COLUMN location TEXT`); err != nil {
		return fmt.Errorf("add location column: %w", err)
	}
	return nil
}

// Insert appends a record and sets its ID.
func (s *Store) Insert(ctx context.Context, r *Record) error {
	if r.Location == "" {
		r.Location = UnknownLocation
	}
	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO visits (ip, location, time, endpoint, user_agent)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`),
		r.IP, r.Location, r.Time, r.Action, r.UserAgent,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

// Count returns the number of records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visits`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count visits: %w", err)
	}
	return n, nil
}

// Totals returns page views and unique visitor addresses at or after since
// (a TimeLayout or DayLayout prefix). An empty since covers the whole table.
func (s *Store) Totals(ctx context.Context, since string) (pv, uv int64, err error) {
	err = s.db.QueryRowContext(ctx, s.rebind(`
		SELECT COUNT(*), COUNT(DISTINCT ip) FROM visits WHERE time >= ?`), since,
	).Scan(&pv, &uv)
	if err != nil {
		return 0, 0, fmt.Errorf("visit totals: %w", err)
	}
	return pv, uv, nil
}

// Daily returns per-day counts for days at or after since (DayLayout),
// ordered by day. Days without visits are absent.
func (s *Store) Daily(ctx context.Context, since string) ([]DayCount, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT substr(time, 1, 10) AS day, COUNT(*), COUNT(DISTINCT ip)
		FROM visits
		WHERE time >= ?
		GROUP BY substr(time, 1, 10)
		ORDER BY day`), since)
	if err != nil {
		return nil, fmt.Errorf("daily visits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var days []DayCount
	for rows.Next() {
		var d DayCount
		if err := rows.Scan(&d.Day, &d.PV, &d.UV); err != nil {
			return nil, fmt.Errorf("scan day: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// ActionCounts returns visit counts per action label, most frequent first.
func (s *Store) ActionCounts(ctx context.Context) ([]Count, error) {
	return s.counts(ctx, `
		SELECT COALESCE(endpoint, '') AS k, COUNT(*) AS n
		FROM visits
		GROUP BY COALESCE(endpoint, '')
		ORDER BY n DESC, k`)
}

// TopLocations returns the n most frequent locations.
func (s *Store) TopLocations(ctx context.Context, n int) ([]Count, error) {
	return s.counts(ctx, `
		SELECT COALESCE(location, 'unknown') AS k, COUNT(*) AS n
		FROM visits
		GROUP BY COALESCE(location, 'unknown')
		ORDER BY n DESC, k
		LIMIT ?`, n)
}

func (s *Store) counts(ctx context.Context, query string, args ...any) ([]Count, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("count visits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Count
	for rows.Next() {
		var c Count
		if err := rows.Scan(&c.Key, &c.N); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Recent returns the latest records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	var out []Record
	err := s.scan(ctx, `SELECT `+selectColumns+` FROM visits ORDER BY time DESC, id DESC LIMIT ?`,
		[]any{limit}, func(r Record) error {
			out = append(out, r)
			return nil
		})
	return out, err
}

// Each calls fn for every record, newest first. Iteration stops at the
// first error returned by fn.
func (s *Store) Each(ctx context.Context, fn func(Record) error) error {
	return s.scan(ctx, `SELECT `+selectColumns+` FROM visits ORDER BY time DESC, id DESC`, nil, fn)
}

func (s *Store) scan(ctx context.Context, query string, args []any, fn func(Record) error) error {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("query visits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.IP, &r.Location, &r.Time, &r.Action, &r.UserAgent); err != nil {
			return fmt.Errorf("scan visit: %w", err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return rows.Err()
}

// rebind converts ? placeholders to $n for postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
