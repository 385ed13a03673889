// Package testutil provides shared test helpers for the crudsql project.
package testutil

import (
	"strconv"

	"github.com/bawdo/crudsql/dialect"
)

// StubDialect implements dialect.Dialect with distinctive, dialect-neutral
// output so tests can tell which rule produced which text.
type StubDialect struct{}

var _ dialect.Dialect = StubDialect{}

func (StubDialect) Name() dialect.Name                { return "stub" }
func (StubDialect) QuoteIdentifier(name string) string { return "[" + name + "]" }
func (StubDialect) Escape(v string) string             { return "esc(" + v + ")" }
func (StubDialect) FuncName(name string) string        { return name }
func (StubDialect) QuoteByDefault() bool               { return false }

func (StubDialect) LimitOffset(limit, offset int) string {
	if limit == 0 {
		return ""
	}
	return "LIMIT " + strconv.Itoa(limit) + "/" + strconv.Itoa(offset)
}
