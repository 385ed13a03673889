package nodes

import (
	"fmt"

	"github.com/bawdo/crudsql/dialect"
	"github.com/bawdo/crudsql/params"
)

// Value is the right-hand side of a comparison or assignment. It is a closed
// set: Scalar, Raw or Expr.
type Value interface {
	isValue()
}

// Scalar is a plain Go value. It is bound as a parameter, or escaped and
// inlined when no placeholder mode is active.
type Scalar struct {
	Value any
}

// Expr wraps any Node used as a value. It is rendered in place, never
// escaped or bound by the caller.
type Expr struct {
	Node Node
}

func (Scalar) isValue() {}
func (Expr) isValue()   {}
func (Raw) isValue()    {}

// V classifies a caller-supplied value. A Value is returned unchanged, a
// Node is wrapped in Expr and anything else becomes a Scalar.
func V(v any) Value {
	switch x := v.(type) {
	case Value:
		return x
	case Node:
		return Expr{Node: x}
	default:
		return Scalar{Value: v}
	}
}

// RenderValue renders v. Scalars are bound under key in placeholder modes
// and inlined as escaped literals otherwise; an empty key is replaced with
// a generated one.
func RenderValue(v Value, key string, d dialect.Dialect, args *params.List) (string, error) {
	switch x := v.(type) {
	case Raw:
		return string(x), nil
	case Expr:
		if x.Node == nil {
			return "", fmt.Errorf("%w: empty expression", ErrInvalidOperand)
		}
		return x.Node.ToSQL(d, args)
	case Scalar:
		if modeOf(args) == params.None {
			return QuoteLiteral(d, x.Value), nil
		}
		if key == "" {
			key = autoKey(args)
		}
		return args.Bind(key, x.Value), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrInvalidOperand, v)
	}
}
