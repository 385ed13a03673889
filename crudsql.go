// Package crudsql assembles single-table CRUD statements for MySQL,
// PostgreSQL and SQLite.
//
// This package re-exports commonly used types and functions from subpackages
// for convenience. Advanced users can import subpackages directly:
//   - github.com/bawdo/crudsql/managers (the statement manager)
//   - github.com/bawdo/crudsql/nodes (expression nodes)
//   - github.com/bawdo/crudsql/dialect (quoting, escaping, LIMIT syntax)
//   - github.com/bawdo/crudsql/params (placeholder modes and bound values)
//   - github.com/bawdo/crudsql/plugins (statement transformers)
package crudsql

import (
	"github.com/bawdo/crudsql/dialect"
	"github.com/bawdo/crudsql/managers"
	"github.com/bawdo/crudsql/nodes"
	"github.com/bawdo/crudsql/params"
)

// --- Manager ---

// Manager builds one SELECT, INSERT, UPDATE or DELETE statement.
type Manager = managers.CRUDManager

// Option configures a Manager.
type Option = managers.Option

// New creates a Manager for table in SELECT mode.
func New(table string, opts ...Option) *Manager {
	return managers.New(table, opts...)
}

// Assign pairs a column with a value for INSERT and UPDATE.
func Assign(column string, value any) managers.Assignment {
	return managers.Assign(column, value)
}

// Bare binds a column to its own name.
func Bare(column string) managers.Assignment {
	return managers.Bare(column)
}

// WithDialect selects the dialect. The default is MySQL.
func WithDialect(d dialect.Dialect) Option { return managers.WithDialect(d) }

// WithPlaceholder selects how values are emitted.
func WithPlaceholder(mode params.Mode) Option { return managers.WithPlaceholder(mode) }

// WithQuoting sets table and column quoting together.
func WithQuoting(on bool) Option { return managers.WithQuoting(on) }

// --- Dialects ---

// Dialect describes a SQL engine's syntax.
type Dialect = dialect.Dialect

// MySQL returns the MySQL dialect.
func MySQL() Dialect { return dialect.NewMySQL() }

// Postgres returns the PostgreSQL dialect.
func Postgres() Dialect { return dialect.NewPostgres() }

// SQLite returns the SQLite dialect.
func SQLite() Dialect { return dialect.NewSQLite() }

// --- Placeholder modes ---

const (
	None       = params.None
	Positional = params.Positional
	Named      = params.Named
	Numbered   = params.Numbered
)

// --- Values ---

// Raw is SQL text emitted verbatim.
type Raw = nodes.Raw

// Expr wraps a node used as a value.
func Expr(n nodes.Node) nodes.Expr { return nodes.Expr{Node: n} }

// Func builds a function call such as NOW() or COALESCE(a, b).
func Func(name string, args ...any) *nodes.FuncCall {
	return nodes.NewFuncCall(name, args...)
}

// Compare builds "column op value".
func Compare(column, op string, value any) *nodes.Binary {
	return nodes.Compare(column, op, value)
}
