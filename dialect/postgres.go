package dialect

import "github.com/bawdo/crudsql/internal/quoting"

// PostgresDialect renders PostgreSQL SQL. Identifiers are quoted with double quotes
// when quoting is enabled (off by default).
type PostgresDialect struct {
	*base
}

var _ Dialect = (*PostgresDialect)(nil)

var postgresFuncs = map[string]string{
	"IFNULL": "COALESCE",
}

// NewPostgres creates a PostgreSQL dialect. The default escaper doubles
// single quotes.
func NewPostgres(opts ...Option) *PostgresDialect {
	d := &PostgresDialect{base: newBase(Postgres, `"`, quoting.DoubleSingleQuotes, postgresFuncs)}
	d.limitOffset = limitThenOffset
	d.applyOptions(opts)
	return d
}
