// Package dialect provides the per-database rule sets used when rendering SQL:
// identifier quoting, LIMIT/OFFSET formatting, string escaping and function
// name translation.
package dialect

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bawdo/crudsql/internal/quoting"
)

// Name identifies a SQL dialect.
type Name string

const (
	MySQL    Name = "mysql"
	Postgres Name = "postgresql"
	SQLite   Name = "sqlite"
)

// ErrUnknownDialect is returned by ForName for unrecognised dialect names.
var ErrUnknownDialect = errors.New("unknown dialect")

// Escaper escapes a string value for inclusion between single quotes.
type Escaper func(string) string

// Dialect is the read-only policy a statement is rendered against.
// Implementations must be safe for concurrent use.
type Dialect interface {
	Name() Name
	// QuoteIdentifier quotes a (possibly qualified) identifier.
	QuoteIdentifier(name string) string
	// LimitOffset returns the LIMIT clause without a leading space, or ""
	// when limit is zero. Zero means absent for both arguments.
	LimitOffset(limit, offset int) string
	Escape(value string) string
	// FuncName translates a function name for this dialect.
	FuncName(name string) string
	// QuoteByDefault reports whether identifiers are quoted unless the
	// caller says otherwise.
	QuoteByDefault() bool
}

// Option configures a dialect at construction time.
type Option func(*base)

// WithEscaper replaces the dialect's default string escaper.
func WithEscaper(e Escaper) Option {
	return func(b *base) {
		if e != nil {
			b.escaper = e
		}
	}
}

// WithFunction registers a function name translation. Lookups are
// case-insensitive.
func WithFunction(name, replacement string) Option {
	return func(b *base) {
		b.funcs[strings.ToUpper(name)] = replacement
	}
}

// WithQuoteChar overrides the identifier quote character.
func WithQuoteChar(q string) Option {
	return func(b *base) {
		b.quote = q
	}
}

// WithDefaultQuoting overrides whether identifiers are quoted by default.
func WithDefaultQuoting(on bool) Option {
	return func(b *base) {
		b.quoteByDefault = on
	}
}

// base implements the rules shared by all dialects. Concrete dialects embed
// *base and supply their own limitOffset formatter.
type base struct {
	name           Name
	quote          string
	quoteByDefault bool
	escaper        Escaper
	funcs          map[string]string
	limitOffset    func(limit, offset int) string
}

func newBase(name Name, quote string, escaper Escaper, funcs map[string]string) *base {
	b := &base{
		name:    name,
		quote:   quote,
		escaper: escaper,
		funcs:   make(map[string]string, len(funcs)),
	}
	for k, v := range funcs {
		b.funcs[k] = v
	}
	return b
}

func (b *base) applyOptions(opts []Option) {
	for _, o := range opts {
		o(b)
	}
}

func (b *base) Name() Name { return b.name }

func (b *base) QuoteIdentifier(name string) string {
	return quoting.QuoteQualified(name, b.quote)
}

func (b *base) LimitOffset(limit, offset int) string {
	return b.limitOffset(limit, offset)
}

func (b *base) Escape(value string) string { return b.escaper(value) }

func (b *base) FuncName(name string) string {
	if r, ok := b.funcs[strings.ToUpper(name)]; ok {
		return r
	}
	return name
}

func (b *base) QuoteByDefault() bool { return b.quoteByDefault }

// limitThenOffset renders "LIMIT l OFFSET o", dropping an offset that has
// no limit.
func limitThenOffset(limit, offset int) string {
	switch {
	case limit > 0 && offset > 0:
		return "LIMIT " + strconv.Itoa(limit) + " OFFSET " + strconv.Itoa(offset)
	case limit > 0:
		return "LIMIT " + strconv.Itoa(limit)
	default:
		return ""
	}
}

// ForName returns a dialect with default options for a driver or dialect
// name such as "mysql", "postgres" or "sqlite3".
func ForName(name string, opts ...Option) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mysql":
		return NewMySQL(opts...), nil
	case "postgres", "postgresql", "pgsql", "pgx":
		return NewPostgres(opts...), nil
	case "sqlite", "sqlite3":
		return NewSQLite(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, name)
	}
}
