package nodes

import (
	"fmt"
	"strings"

	"github.com/bawdo/crudsql/dialect"
	"github.com/bawdo/crudsql/params"
)

// Binary is "left op right". A scalar right side is bound under the left
// side's identifier name when the left side is an Ident.
type Binary struct {
	Left  Node
	Op    string
	Right Value
}

// NewBinary creates a Binary node. right is classified with V.
func NewBinary(left Node, op string, right any) *Binary {
	return &Binary{Left: left, Op: op, Right: V(right)}
}

// Compare builds "column op value" with column as an Ident. The column is
// always quoted by the dialect, whatever the quoting setting of the
// condition set it is appended to; use NewBinary with a Raw left side for
// an unquoted column.
func Compare(column, op string, value any) *Binary {
	return NewBinary(Ident(column), op, value)
}

// IsNull builds "column IS NULL" with column always quoted, like Compare.
func IsNull(column string) *Binary {
	return NewBinary(Ident(column), "IS", Raw("NULL"))
}

func (n *Binary) ToSQL(d dialect.Dialect, args *params.List) (string, error) {
	if n.Left == nil {
		return "", fmt.Errorf("%w: binary %q has no left operand", ErrInvalidOperand, n.Op)
	}
	left, err := n.Left.ToSQL(d, args)
	if err != nil {
		return "", err
	}
	right, err := RenderValue(n.Right, bindKey(n.Left), d, args)
	if err != nil {
		return "", err
	}
	return left + " " + n.Op + " " + right, nil
}

// bindKey returns the parameter key for values compared with left: the
// unqualified column name of an Ident, or "" for anything else.
func bindKey(left Node) string {
	id, ok := left.(Ident)
	if !ok {
		return ""
	}
	key := string(id)
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		key = key[i+1:]
	}
	return key
}
