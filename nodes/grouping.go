package nodes

import (
	"fmt"

	"github.com/bawdo/crudsql/dialect"
	"github.com/bawdo/crudsql/params"
)

// Grouping wraps an expression in parentheses for precedence control.
type Grouping struct {
	Expr Node
}

// Group wraps expr in parentheses.
func Group(expr Node) *Grouping { return &Grouping{Expr: expr} }

func (n *Grouping) ToSQL(d dialect.Dialect, args *params.List) (string, error) {
	if n.Expr == nil {
		return "", fmt.Errorf("%w: empty grouping", ErrInvalidOperand)
	}
	s, err := n.Expr.ToSQL(d, args)
	if err != nil {
		return "", err
	}
	return "(" + s + ")", nil
}
