// Package nodes defines the expression nodes, condition sets and join
// clauses that render themselves against a dialect.Dialect and a
// params.List.
package nodes

import (
	"errors"
	"strconv"

	"github.com/bawdo/crudsql/dialect"
	"github.com/bawdo/crudsql/params"
)

var (
	// ErrInvalidOperand is returned when a node is given an operand it
	// cannot render.
	ErrInvalidOperand = errors.New("invalid operand")
	// ErrUnsupportedMethod is returned by textual method dispatch for a
	// name outside the recognised set.
	ErrUnsupportedMethod = errors.New("unsupported method")
)

// Node is a unit of SQL that renders itself. Rendering never mutates the
// node; it may append to args when a value is bound. A nil args behaves
// like params.None.
type Node interface {
	ToSQL(d dialect.Dialect, args *params.List) (string, error)
}

// modeOf returns the placeholder mode of args, treating nil as None.
func modeOf(args *params.List) params.Mode {
	if args == nil {
		return params.None
	}
	return args.Mode()
}

// autoKey names a bound value that has no column to be keyed by.
func autoKey(args *params.List) string {
	n := 1
	if args != nil {
		n = args.Len() + 1
	}
	return "p" + strconv.Itoa(n)
}
