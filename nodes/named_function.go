package nodes

import (
	"fmt"
	"strings"

	"github.com/bawdo/crudsql/dialect"
	"github.com/bawdo/crudsql/params"
)

// FuncCall is a SQL function call. The name is translated through the
// dialect's function table at render time.
type FuncCall struct {
	Name string
	Args []Value
}

// NewFuncCall creates a FuncCall. Each argument is classified with V, so
// plain Go values are bound or escaped and nodes render in place.
func NewFuncCall(name string, args ...any) *FuncCall {
	vals := make([]Value, len(args))
	for i, a := range args {
		vals[i] = V(a)
	}
	return &FuncCall{Name: name, Args: vals}
}

// Count creates COUNT(expr). A nil expr renders COUNT(*).
func Count(expr Node) *FuncCall {
	if expr == nil {
		return NewFuncCall("COUNT", Raw("*"))
	}
	return NewFuncCall("COUNT", expr)
}

// Coalesce creates COALESCE(args...).
func Coalesce(args ...any) *FuncCall {
	return NewFuncCall("COALESCE", args...)
}

func (n *FuncCall) ToSQL(d dialect.Dialect, args *params.List) (string, error) {
	name := d.FuncName(n.Name)
	if err := validateFunctionName(name); err != nil {
		return "", err
	}
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		s, err := RenderValue(a, "", d, args)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return name + "(" + strings.Join(parts, ", ") + ")", nil
}

// validateFunctionName rejects names containing anything other than
// letters, digits and underscores.
func validateFunctionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty function name", ErrInvalidOperand)
	}
	for _, c := range name {
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') &&
			(c < '0' || c > '9') && c != '_' {
			return fmt.Errorf("%w: invalid function name character %q in %q", ErrInvalidOperand, string(c), name)
		}
	}
	return nil
}
