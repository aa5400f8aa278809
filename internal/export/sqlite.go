package export

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"solverlog/pkg/simlog"
)

// DefaultTable is the table name used when the caller does not pick one.
const DefaultTable = "convergence"

// columnName maps a slash-separated row key to a SQL identifier.
func columnName(key string) string {
	return strings.ReplaceAll(key, "/", "_")
}

// columnType returns the SQLite column type for a row key. Index columns are
// integers, every measured quantity is a float.
func columnType(key string) string {
	if strings.HasSuffix(key, "number") {
		return "INTEGER"
	}
	return "REAL"
}

// WriteSQLite writes one row per convergence leaf into table inside the
// database file at path, creating both as needed. All inserts run in a single
// transaction so a failure leaves no half-written table behind.
func WriteSQLite(path, table string, sim *simlog.Simulation) error {
	if table == "" {
		table = DefaultTable
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening database %s: %w", path, err)
	}
	defer db.Close()

	defs := make([]string, len(simlog.Columns))
	names := make([]string, len(simlog.Columns))
	holes := make([]string, len(simlog.Columns))
	for i, col := range simlog.Columns {
		names[i] = columnName(col)
		defs[i] = fmt.Sprintf("%q %s", names[i], columnType(col))
		holes[i] = "?"
	}

	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %q (%s)", table, strings.Join(defs, ", "))
	if _, err := db.Exec(create); err != nil {
		return fmt.Errorf("creating table %s: %w", table, err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	insert := fmt.Sprintf("INSERT INTO %q (%s) VALUES (%s)",
		table, strings.Join(quoted, ", "), strings.Join(holes, ", "))

	stmt, err := tx.Prepare(insert)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(simlog.Columns))
	for row := range sim.Rows() {
		for i, col := range simlog.Columns {
			args[i] = row[col]
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("inserting row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}
