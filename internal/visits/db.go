package visits

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"
)

// Dialect identifies the SQL flavor of the visits database.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Open connects to the visits database. For sqlite, path is created if
// needed; for postgres, dsn is required.
func Open(ctx context.Context, driver, path, dsn string) (*sql.DB, Dialect, error) {
	switch Dialect(driver) {
	case DialectSQLite, "":
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, "", fmt.Errorf("create data directory: %w", err)
			}
		}
		db, err := sql.Open("sqlite", sqliteDSN(path))
		if err != nil {
			return nil, "", fmt.Errorf("open sqlite: %w", err)
		}
		// Single writer; concurrent writers would hit SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		if err := ping(ctx, db); err != nil {
			return nil, "", err
		}
		return db, DialectSQLite, nil

	case DialectPostgres:
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, "", fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetConnMaxIdleTime(5 * time.Minute)
		if err := ping(ctx, db); err != nil {
			return nil, "", err
		}
		return db, DialectPostgres, nil

	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

func sqliteDSN(path string) string {
	if path == ":memory:" {
		return path
	}
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}
