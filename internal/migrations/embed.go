// Package migrations provides embedded SQL migration files.
package migrations

import (
	_ "embed"
)

//go:embed sql/001_visits_sqlite.sql
var VisitsSQLite string

//go:embed sql/001_visits_postgres.sql
var VisitsPostgres string
