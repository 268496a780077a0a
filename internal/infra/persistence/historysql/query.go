// Package historysql holds the SQL shared by the relational simulation
// history stores. Dialects differ only in DDL and placeholder syntax.
package historysql

import (
	"strings"

	"stepgen/pkg/domain"
)

// Table is the simulation history table name.
const Table = "simulation_history"

// InsertColumns lists the columns written by Add, in argument order.
var InsertColumns = []string{
	"run_id", "name", "author", "content_hash", "schema_version",
	"engine_version", "command_count", "error_count", "halted", "created_at",
}

// SelectColumns lists the columns read back, id first.
var SelectColumns = append([]string{"id"}, InsertColumns...)

// Placeholder renders the bind parameter for the 1-based argument n.
type Placeholder func(n int) string

// Insert builds the INSERT statement for one entry.
func Insert(ph Placeholder, suffix string) string {
	marks := make([]string, len(InsertColumns))
	for i := range marks {
		marks[i] = ph(i + 1)
	}
	stmt := "INSERT INTO " + Table + " (" + strings.Join(InsertColumns, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
	if suffix != "" {
		stmt += " " + suffix
	}
	return stmt
}

// Select builds a SELECT over q's non-empty fields. Values are always bound,
// never interpolated.
func Select(q domain.HistoryQuery, ph Placeholder) (string, []any) {
	var (
		conds []string
		args  []any
	)
	for _, f := range []struct {
		column string
		value  string
	}{
		{"name", q.Name},
		{"content_hash", q.ContentHash},
		{"schema_version", q.SchemaVersion},
		{"engine_version", q.EngineVersion},
	} {
		if f.value == "" {
			continue
		}
		args = append(args, f.value)
		conds = append(conds, f.column+" = "+ph(len(args)))
	}
	stmt := "SELECT " + strings.Join(SelectColumns, ", ") + " FROM " + Table
	if len(conds) > 0 {
		stmt += " WHERE " + strings.Join(conds, " AND ")
	}
	return stmt + " ORDER BY id", args
}
