package nodes

import (
	"fmt"
	"strings"

	"github.com/bawdo/crudsql/dialect"
	"github.com/bawdo/crudsql/params"
)

// Connective joins the entries of a Conditions set.
type Connective string

const (
	And Connective = "AND"
	Or  Connective = "OR"
)

type entryKind int

const (
	pairEntry entryKind = iota // left = value
	bareEntry                  // column = column
	exprEntry                  // stand-alone expression
)

type condition struct {
	kind   entryKind
	column string // set when the left side is a column name
	left   Node   // set when the left side is an expression
	value  Value
}

// Conditions is an ordered set of equality comparisons and stand-alone
// expressions joined by a connective. It backs WHERE clauses and JOIN ... ON.
// Only equality is modelled; other comparisons are written as a Raw or Expr
// right side, or as a stand-alone expression.
type Conditions struct {
	connective   Connective
	quoteColumns bool
	entries      []condition
}

// NewConditions creates an empty set joined with AND.
func NewConditions() *Conditions {
	return &Conditions{connective: And}
}

// Append adds "column = value". value is classified with V.
func (c *Conditions) Append(column string, value any) *Conditions {
	c.entries = append(c.entries, condition{kind: pairEntry, column: column, value: V(value)})
	return c
}

// AppendExpr adds "left = value" where left is an already-built expression.
func (c *Conditions) AppendExpr(left Node, value any) *Conditions {
	c.entries = append(c.entries, condition{kind: pairEntry, left: left, value: V(value)})
	return c
}

// AppendColumn adds a bare column entry, rendered as "column = column"
// with the column name used both as the identifier and as the value (bound
// under its own name in placeholder modes). This is a narrow convenience
// kept for compatibility with list-style payloads.
func (c *Conditions) AppendColumn(column string) *Conditions {
	c.entries = append(c.entries, condition{kind: bareEntry, column: column})
	return c
}

// AppendRaw adds a stand-alone expression. A string is taken as raw SQL.
func (c *Conditions) AppendRaw(expr any) *Conditions {
	var n Node
	switch x := expr.(type) {
	case Node:
		n = x
	case string:
		n = Raw(x)
	}
	c.entries = append(c.entries, condition{kind: exprEntry, left: n})
	return c
}

// And sets the connective to AND.
func (c *Conditions) And() *Conditions {
	c.connective = And
	return c
}

// Or sets the connective to OR.
func (c *Conditions) Or() *Conditions {
	c.connective = Or
	return c
}

// Connective returns the current connective.
func (c *Conditions) Connective() Connective { return c.connective }

// SetQuoteColumns controls whether column names are quoted by the dialect.
func (c *Conditions) SetQuoteColumns(on bool) *Conditions {
	c.quoteColumns = on
	return c
}

// HasEntries reports whether any entry has been appended.
func (c *Conditions) HasEntries() bool { return len(c.entries) > 0 }

// Len returns the number of entries.
func (c *Conditions) Len() int { return len(c.entries) }

// Clone returns an independent copy. Appending to the copy does not affect
// the original.
func (c *Conditions) Clone() *Conditions {
	entries := make([]condition, len(c.entries))
	copy(entries, c.entries)
	return &Conditions{
		connective:   c.connective,
		quoteColumns: c.quoteColumns,
		entries:      entries,
	}
}

// ToSQL renders the entries joined by the connective, without any WHERE
// or ON prefix. An empty set renders "".
func (c *Conditions) ToSQL(d dialect.Dialect, args *params.List) (string, error) {
	if len(c.entries) == 0 {
		return "", nil
	}
	parts := make([]string, len(c.entries))
	for i, e := range c.entries {
		s, err := c.renderEntry(e, d, args)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	conn := c.connective
	if conn == "" {
		conn = And
	}
	return strings.Join(parts, " "+string(conn)+" "), nil
}

func (c *Conditions) renderEntry(e condition, d dialect.Dialect, args *params.List) (string, error) {
	switch e.kind {
	case exprEntry:
		if e.left == nil {
			return "", fmt.Errorf("%w: condition expression is neither a string nor a node", ErrInvalidOperand)
		}
		return e.left.ToSQL(d, args)
	case bareEntry:
		right, err := RenderValue(Scalar{Value: e.column}, e.column, d, args)
		if err != nil {
			return "", err
		}
		return c.column(e.column, d) + " = " + right, nil
	}

	var left, key string
	if e.left != nil {
		s, err := e.left.ToSQL(d, args)
		if err != nil {
			return "", err
		}
		left = s
	} else {
		left = c.column(e.column, d)
		key = e.column
	}
	right, err := RenderValue(e.value, key, d, args)
	if err != nil {
		return "", err
	}
	return left + " = " + right, nil
}

func (c *Conditions) column(name string, d dialect.Dialect) string {
	if c.quoteColumns {
		return d.QuoteIdentifier(name)
	}
	return name
}
