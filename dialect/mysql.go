package dialect

import (
	"strconv"

	"github.com/bawdo/crudsql/internal/quoting"
)

// MySQLDialect renders MySQL SQL. Identifiers are quoted with backticks when
// quoting is enabled (off by default) and LIMIT takes the "offset , limit"
// form.
type MySQLDialect struct {
	*base
}

var _ Dialect = (*MySQLDialect)(nil)

// NewMySQL creates a MySQL dialect. The default escaper is
// quoting.AddSlashes.
func NewMySQL(opts ...Option) *MySQLDialect {
	d := &MySQLDialect{base: newBase(MySQL, "`", quoting.AddSlashes, nil)}
	d.limitOffset = mysqlLimitOffset
	d.applyOptions(opts)
	return d
}

func mysqlLimitOffset(limit, offset int) string {
	switch {
	case limit > 0 && offset > 0:
		return "LIMIT " + strconv.Itoa(offset) + " , " + strconv.Itoa(limit)
	case limit > 0:
		return "LIMIT " + strconv.Itoa(limit)
	default:
		return ""
	}
}
