package nodes

import (
	"github.com/bawdo/crudsql/dialect"
	"github.com/bawdo/crudsql/params"
)

// Unary is a prefix operator applied to one operand: "op operand".
type Unary struct {
	Op      string
	Operand Value
}

// NewUnary creates a Unary node. The operand is classified with V.
func NewUnary(op string, operand any) *Unary {
	return &Unary{Op: op, Operand: V(operand)}
}

// Not negates an expression.
func Not(operand Node) *Unary {
	return NewUnary("NOT", operand)
}

func (n *Unary) ToSQL(d dialect.Dialect, args *params.List) (string, error) {
	operand, err := RenderValue(n.Operand, "", d, args)
	if err != nil {
		return "", err
	}
	return n.Op + " " + operand, nil
}
