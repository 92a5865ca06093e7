package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

// Schema creates the tables read by SQLiteTable.
const Schema = `
CREATE TABLE IF NOT EXISTS voice_model (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    gender INTEGER NOT NULL,
    raw_data TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS voice_mapping (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    sub_name TEXT NOT NULL
);`

// SQLiteTable reads one table of a catalog database. Rows are returned in rowid order.
type SQLiteTable struct {
	Path    string
	table   string
	columns []string
}

// SQLiteModels reads voice_model from the database at path.
func SQLiteModels(path string) *SQLiteTable {
	return &SQLiteTable{Path: path, table: "voice_model", columns: modelColumns}
}

// SQLiteMappings reads voice_mapping from the database at path.
func SQLiteMappings(path string) *SQLiteTable {
	return &SQLiteTable{Path: path, table: "voice_mapping", columns: mappingColumns}
}

func (t *SQLiteTable) Location() string {
	return t.Path + "#" + t.table
}

func (t *SQLiteTable) Read(ctx context.Context) (*Rows, error) {
	// sql.Open would create a missing database file.
	if _, err := os.Stat(t.Path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", t.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	defer db.Close()

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", strings.Join(t.columns, ", "), t.table)
	result, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.table, err)
	}
	defer result.Close()

	rows := &Rows{Path: t.Path}
	ordinal := 0
	for result.Next() {
		ordinal++
		cells := make([]sql.NullString, len(t.columns))
		dest := make([]any, len(cells))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := result.Scan(dest...); err != nil {
			rows.Skipped = append(rows.Skipped, RowError{Line: ordinal, Err: err})
			continue
		}
		values := make(map[string]string, len(cells))
		for i, col := range t.columns {
			values[col] = cells[i].String
		}
		rows.Records = append(rows.Records, Record{Line: ordinal, Values: values})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", t.table, err)
	}
	return rows, nil
}
