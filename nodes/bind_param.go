package nodes

import (
	"github.com/bawdo/crudsql/dialect"
	"github.com/bawdo/crudsql/params"
)

// Bind is an explicit bound value. It renders to the placeholder returned
// by the parameter list, or to an escaped literal when no placeholder mode
// is active.
type Bind struct {
	Key   string // empty means generated
	Value any
}

// NewBind creates a Bind node.
func NewBind(key string, value any) *Bind {
	return &Bind{Key: key, Value: value}
}

func (n *Bind) ToSQL(d dialect.Dialect, args *params.List) (string, error) {
	return RenderValue(Scalar{Value: n.Value}, n.Key, d, args)
}
