package nodes

import (
	"fmt"
	"strings"

	"github.com/bawdo/crudsql/dialect"
	"github.com/bawdo/crudsql/params"
)

// In is "expr [NOT] IN (v1, v2, ...)". Scalar values are bound under the
// column name of an Ident expression.
type In struct {
	Expr   Node
	Values []Value
	Negate bool
}

// InList builds "column IN (values...)". Like Compare, the column is an
// Ident and always quoted; build an In with a Raw Expr for an unquoted
// column.
func InList(column string, values ...any) *In {
	return &In{Expr: Ident(column), Values: valuesOf(values)}
}

// NotInList builds "column NOT IN (values...)".
func NotInList(column string, values ...any) *In {
	n := InList(column, values...)
	n.Negate = true
	return n
}

func (n *In) ToSQL(d dialect.Dialect, args *params.List) (string, error) {
	if n.Expr == nil {
		return "", fmt.Errorf("%w: IN without expression", ErrInvalidOperand)
	}
	if len(n.Values) == 0 {
		return "", fmt.Errorf("%w: IN with an empty list", ErrInvalidOperand)
	}
	left, err := n.Expr.ToSQL(d, args)
	if err != nil {
		return "", err
	}
	key := bindKey(n.Expr)
	items := make([]string, len(n.Values))
	for i, v := range n.Values {
		if items[i], err = RenderValue(v, key, d, args); err != nil {
			return "", err
		}
	}
	op := " IN ("
	if n.Negate {
		op = " NOT IN ("
	}
	return left + op + strings.Join(items, ", ") + ")", nil
}

// Between is "expr [NOT] BETWEEN low AND high".
type Between struct {
	Expr      Node
	Low, High Value
	Negate    bool
}

// Range builds "column BETWEEN low AND high" with column always quoted, like
// Compare.
func Range(column string, low, high any) *Between {
	return &Between{Expr: Ident(column), Low: V(low), High: V(high)}
}

func (n *Between) ToSQL(d dialect.Dialect, args *params.List) (string, error) {
	if n.Expr == nil || n.Low == nil || n.High == nil {
		return "", fmt.Errorf("%w: incomplete BETWEEN", ErrInvalidOperand)
	}
	left, err := n.Expr.ToSQL(d, args)
	if err != nil {
		return "", err
	}
	key := bindKey(n.Expr)
	low, err := RenderValue(n.Low, key, d, args)
	if err != nil {
		return "", err
	}
	high, err := RenderValue(n.High, key, d, args)
	if err != nil {
		return "", err
	}
	op := " BETWEEN "
	if n.Negate {
		op = " NOT BETWEEN "
	}
	return left + op + low + " AND " + high, nil
}

func valuesOf(values []any) []Value {
	out := make([]Value, len(values))
	for i, v := range values {
		out[i] = V(v)
	}
	return out
}
