// Package schema defines the ordered column registry that drives both
// table provisioning (DDL) and row construction (DML) for the logs
// table. The registry is a plain ordered sequence of (name, type,
// extractor) values; column order is fixed and identical between the
// CREATE TABLE statement and every INSERT.
package schema

import (
	"fmt"
	"strings"

	"github.com/sqlog/sqlog/pkg/types"
)

// TableName is the fixed name of the log table inside every storage
// file.
const TableName = "logs"

// ColumnType is the SQLite storage type tag for a column.
type ColumnType string

const (
	TypeText     ColumnType = "TEXT"
	TypeInteger  ColumnType = "INTEGER"
	TypeReal     ColumnType = "REAL"
	TypeDatetime ColumnType = "DATETIME"
)

// TimeLayout is the local-datetime format stored in the Time column,
// microsecond precision included.
const TimeLayout = "2006-01-02 15:04:05.000000"

// Column pairs a stable column name with a storage type and a pure
// value extractor. Extractors must not fail for well-formed records;
// an unset attribute yields nil (stored as NULL), never an error.
type Column struct {
	Name    string
	Type    ColumnType
	Extract func(*types.Record) (any, error)
}

// Registry is an ordered, immutable sequence of column definitions.
// The DDL and DML statements are derived once at construction.
type Registry struct {
	columns   []Column
	names     []string
	createSQL string
	insertSQL string
}

// NewRegistry builds a registry from an ordered column list. Column
// names must be unique and every column needs an extractor.
func NewRegistry(columns []Column) (*Registry, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("schema: registry requires at least one column")
	}

	seen := make(map[string]struct{}, len(columns))
	names := make([]string, 0, len(columns))
	for _, col := range columns {
		if col.Name == "" {
			return nil, fmt.Errorf("schema: column name must not be empty")
		}
		if _, dup := seen[col.Name]; dup {
			return nil, fmt.Errorf("schema: duplicate column name %q", col.Name)
		}
		if col.Extract == nil {
			return nil, fmt.Errorf("schema: column %q has no extractor", col.Name)
		}
		seen[col.Name] = struct{}{}
		names = append(names, col.Name)
	}

	r := &Registry{
		columns: append([]Column(nil), columns...),
		names:   names,
	}
	r.createSQL = buildCreateSQL(r.columns)
	r.insertSQL = buildInsertSQL(names)
	return r, nil
}

// Columns returns a copy of the ordered column definitions.
func (r *Registry) Columns() []Column {
	return append([]Column(nil), r.columns...)
}

// ColumnNames returns the ordered column names used verbatim in both
// DDL and DML.
func (r *Registry) ColumnNames() []string {
	return append([]string(nil), r.names...)
}

// ExtractRow applies each column's extractor in order and returns the
// ordered value tuple, one value per column. The first extractor error
// aborts the row and propagates to the caller. The record must be
// non-nil; the sink rejects nil records before extraction.
func (r *Registry) ExtractRow(rec *types.Record) ([]any, error) {
	values := make([]any, 0, len(r.columns))
	for _, col := range r.columns {
		v, err := col.Extract(rec)
		if err != nil {
			return nil, fmt.Errorf("schema: column %q: %w", col.Name, err)
		}
		values = append(values, v)
	}
	return values, nil
}

// CreateTableSQL returns the idempotent table-provisioning statement,
// including the storage-assigned identity column.
func (r *Registry) CreateTableSQL() string {
	return r.createSQL
}

// InsertSQL returns the parameterized insert statement matching
// ColumnNames in order.
func (r *Registry) InsertSQL() string {
	return r.insertSQL
}

func buildCreateSQL(columns []Column) string {
	defs := make([]string, 0, len(columns)+1)
	defs = append(defs, "id INTEGER PRIMARY KEY AUTOINCREMENT")
	for _, col := range columns {
		typ := col.Type
		if typ == "" {
			typ = TypeText
		}
		defs = append(defs, fmt.Sprintf("%s %s", col.Name, typ))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", TableName, strings.Join(defs, ", "))
}

func buildInsertSQL(names []string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	return fmt.Sprintf("INSERT INTO %s(%s) VALUES(%s)", TableName, strings.Join(names, ", "), placeholders)
}
