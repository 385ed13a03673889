package nodes

import (
	"fmt"

	"github.com/bawdo/crudsql/dialect"
	"github.com/bawdo/crudsql/params"
)

// Distinct renders "DISTINCT inner".
type Distinct struct {
	Expr Node
}

// NewDistinct wraps a Node, or a string taken as raw SQL. Any other value
// fails with ErrInvalidOperand.
func NewDistinct(expr any) (*Distinct, error) {
	switch x := expr.(type) {
	case Node:
		return &Distinct{Expr: x}, nil
	case string:
		return &Distinct{Expr: Raw(x)}, nil
	}
	return nil, fmt.Errorf("%w: distinct of %T", ErrInvalidOperand, expr)
}

func (n *Distinct) ToSQL(d dialect.Dialect, args *params.List) (string, error) {
	if n.Expr == nil {
		return "", fmt.Errorf("%w: distinct without expression", ErrInvalidOperand)
	}
	inner, err := n.Expr.ToSQL(d, args)
	if err != nil {
		return "", err
	}
	return "DISTINCT " + inner, nil
}
