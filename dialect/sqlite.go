package dialect

import "github.com/bawdo/crudsql/internal/quoting"

// SQLiteDialect renders SQLite SQL. Identifiers are double-quoted by default.
type SQLiteDialect struct {
	*base
}

var _ Dialect = (*SQLiteDialect)(nil)

var sqliteFuncs = map[string]string{
	"NOW": "DATETIME",
}

// NewSQLite creates a SQLite dialect.
func NewSQLite(opts ...Option) *SQLiteDialect {
	d := &SQLiteDialect{base: newBase(SQLite, `"`, quoting.DoubleSingleQuotes, sqliteFuncs)}
	d.quoteByDefault = true
	d.limitOffset = limitThenOffset
	d.applyOptions(opts)
	return d
}
