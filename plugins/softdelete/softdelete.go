// Package softdelete provides a Transformer that injects "column IS NULL"
// conditions, filtering out soft-deleted rows.
//
// By default it appends "<table>.deleted_at IS NULL" for the main table and
// every joined table of a SELECT. Joined tables are qualified by their
// alias when they have one. UPDATE statements get the condition for the
// main table only, so soft-deleted rows are never modified. INSERT and
// DELETE are left alone.
//
// # Basic usage
//
//	m := managers.New("users")
//	m.Use(softdelete.New())
//	// SELECT * FROM users WHERE users.deleted_at IS NULL
//
// # Custom column
//
//	softdelete.New(softdelete.WithColumn("removed_at"))
//
// # Restrict to specific tables
//
//	softdelete.New(softdelete.WithTables("users"))
//
// # Per-table columns
//
//	softdelete.New(
//	    softdelete.WithTableColumn("users", "deleted_at"),
//	    softdelete.WithTableColumn("posts", "removed_at"),
//	)
//
// # REPL usage
//
//	crudsql> plugin softdelete
//	crudsql> plugin softdelete removed_at
//	crudsql> plugin softdelete removed_at on users posts
//	crudsql> plugin off softdelete
package softdelete

import (
	"github.com/bawdo/crudsql/nodes"
	"github.com/bawdo/crudsql/plugins"
)

// DefaultColumn is the soft-delete column used when none is configured.
const DefaultColumn = "deleted_at"

// SoftDelete is a Transformer that appends IS NULL conditions for a
// soft-delete column on every referenced table (or a configured subset).
type SoftDelete struct {
	plugins.BaseTransformer
	Column  string
	Columns map[string]string // per-table column overrides
	tables  map[string]bool   // nil means every table
}

// Option configures a SoftDelete transformer.
type Option func(*SoftDelete)

// WithColumn sets the soft-delete column name. Default is "deleted_at".
func WithColumn(name string) Option {
	return func(sd *SoftDelete) { sd.Column = name }
}

// WithTables restricts the plugin to the named tables.
func WithTables(names ...string) Option {
	return func(sd *SoftDelete) {
		sd.tables = make(map[string]bool, len(names))
		for _, n := range names {
			sd.tables[n] = true
		}
	}
}

// WithTableColumn sets a per-table column. The table is added to the
// whitelist, which restricts the plugin's scope.
func WithTableColumn(table, column string) Option {
	return func(sd *SoftDelete) {
		if sd.Columns == nil {
			sd.Columns = make(map[string]string)
		}
		sd.Columns[table] = column
		if sd.tables == nil {
			sd.tables = make(map[string]bool)
		}
		sd.tables[table] = true
	}
}

// New creates a SoftDelete transformer with the given options.
func New(opts ...Option) *SoftDelete {
	sd := &SoftDelete{Column: DefaultColumn}
	for _, o := range opts {
		o(sd)
	}
	return sd
}

// TransformSelect appends the IS NULL condition for each matching table.
func (sd *SoftDelete) TransformSelect(stmt *plugins.Statement) (*plugins.Statement, error) {
	for _, ref := range plugins.CollectTables(stmt) {
		sd.apply(stmt, ref)
	}
	return stmt, nil
}

// TransformUpdate appends the IS NULL condition for the main table.
func (sd *SoftDelete) TransformUpdate(stmt *plugins.Statement) (*plugins.Statement, error) {
	if stmt.Table != "" {
		sd.apply(stmt, plugins.TableRef{Ref: stmt.Table, Name: stmt.Table})
	}
	return stmt, nil
}

func (sd *SoftDelete) apply(stmt *plugins.Statement, ref plugins.TableRef) {
	if !sd.appliesTo(ref.Name) {
		return
	}
	if stmt.Where == nil {
		stmt.Where = nodes.NewConditions().SetQuoteColumns(stmt.QuoteColumns)
	}
	col := ref.Ref + "." + sd.columnFor(ref.Name)
	var left nodes.Node = nodes.Raw(col)
	if stmt.QuoteColumns {
		left = nodes.Ident(col)
	}
	stmt.Where.AppendRaw(nodes.NewBinary(left, "IS", nodes.Raw("NULL")))
}

func (sd *SoftDelete) appliesTo(tableName string) bool {
	if sd.tables == nil {
		return true
	}
	return sd.tables[tableName]
}

// columnFor returns the per-table override or the default column.
func (sd *SoftDelete) columnFor(tableName string) string {
	if col, ok := sd.Columns[tableName]; ok {
		return col
	}
	return sd.Column
}
