package nodes

import (
	"fmt"

	"github.com/bawdo/crudsql/dialect"
	"github.com/bawdo/crudsql/params"
)

// Raw is a SQL fragment rendered verbatim. It is never escaped or bound.
//
// SECURITY: never build a Raw from user-controlled input.
type Raw string

func (r Raw) ToSQL(_ dialect.Dialect, _ *params.List) (string, error) {
	return string(r), nil
}

// Ident is an identifier that is always quoted by the dialect.
type Ident string

func (i Ident) ToSQL(d dialect.Dialect, _ *params.List) (string, error) {
	return d.QuoteIdentifier(string(i)), nil
}

// QuoteLiteral escapes v with the dialect escaper and wraps it in single
// quotes. nil renders as NULL.
func QuoteLiteral(d dialect.Dialect, v any) string {
	if v == nil {
		return "NULL"
	}
	return "'" + d.Escape(literalString(v)) + "'"
}

func literalString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
