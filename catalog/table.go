package catalog

import (
	"context"
	"path/filepath"
	"strings"
)

// Column names shared by every table format.
const (
	ColumnName    = "name"
	ColumnGender  = "gender"
	ColumnRawData = "raw_data"
	ColumnSubName = "sub_name"
)

var (
	modelColumns   = []string{ColumnName, ColumnGender, ColumnRawData}
	mappingColumns = []string{ColumnName, ColumnSubName}
)

// Record is one row keyed by column name.
type Record struct {
	Line   int
	Values map[string]string
}

// Rows is the decoded content of a table.
type Rows struct {
	Path     string
	Encoding string // empty when the store is not text based
	Records  []Record
	Skipped  []RowError
}

// Table is a tabular source of records.
type Table interface {
	// Location describes the table for logs and errors.
	Location() string
	// Read returns every record. A missing table yields an error wrapping fs.ErrNotExist.
	Read(ctx context.Context) (*Rows, error)
}

// TablesFor picks the table implementation from the model file extension. SQLite
// databases hold both tables, so mappingPath is ignored for them.
func TablesFor(modelPath, mappingPath string) (models, mappings Table) {
	switch strings.ToLower(filepath.Ext(modelPath)) {
	case ".db", ".sqlite", ".sqlite3":
		return SQLiteModels(modelPath), SQLiteMappings(modelPath)
	default:
		return CSVModels(modelPath), CSVMappings(mappingPath)
	}
}
