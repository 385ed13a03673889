package nodes

import (
	"fmt"
	"strings"

	"github.com/bawdo/crudsql/dialect"
	"github.com/bawdo/crudsql/params"
)

// JoinKind is the kind keyword of a JOIN clause.
type JoinKind int

const (
	PlainJoin JoinKind = iota // bare JOIN
	InnerJoin
	LeftJoin
	RightJoin
)

// String returns the SQL keyword for this kind ("" for PlainJoin).
func (k JoinKind) String() string {
	switch k {
	case InnerJoin:
		return "INNER"
	case LeftJoin:
		return "LEFT"
	case RightJoin:
		return "RIGHT"
	default:
		return ""
	}
}

// Join is a JOIN clause with its own ON conditions. Column references in
// the conditions are not rewritten: when an alias is set, conditions must
// use it.
type Join struct {
	Table      string
	alias      string
	kind       JoinKind
	conditions *Conditions
	hints      IndexHints
}

// NewJoin creates a plain JOIN against table.
func NewJoin(table string) *Join {
	return &Join{Table: table, conditions: NewConditions()}
}

// Left makes this a LEFT JOIN.
func (j *Join) Left() *Join {
	j.kind = LeftJoin
	return j
}

// Right makes this a RIGHT JOIN.
func (j *Join) Right() *Join {
	j.kind = RightJoin
	return j
}

// Inner makes this an INNER JOIN.
func (j *Join) Inner() *Join {
	j.kind = InnerJoin
	return j
}

// As sets the table alias.
func (j *Join) As(alias string) *Join {
	j.alias = alias
	return j
}

// Alias returns the table alias, or "".
func (j *Join) Alias() string { return j.alias }

// Kind returns the join kind.
func (j *Join) Kind() JoinKind { return j.kind }

// On appends each non-empty expression as a raw stand-alone condition and
// returns the join's condition set for further chaining.
func (j *Join) On(exprs ...string) *Conditions {
	for _, e := range exprs {
		if strings.TrimSpace(e) != "" {
			j.conditions.AppendRaw(Raw(e))
		}
	}
	return j.conditions
}

// Conditions returns the join's ON condition set.
func (j *Join) Conditions() *Conditions { return j.conditions }

// UseIndex registers USE INDEX (indexes...) for ref (table name or alias).
func (j *Join) UseIndex(ref string, indexes ...string) *Join {
	return j.AddIndexHint(ref, IndexHint{Type: UseIndex, Indexes: indexes})
}

// IgnoreIndex registers IGNORE INDEX (indexes...) for ref.
func (j *Join) IgnoreIndex(ref string, indexes ...string) *Join {
	return j.AddIndexHint(ref, IndexHint{Type: IgnoreIndex, Indexes: indexes})
}

// ForceIndex registers FORCE INDEX (indexes...) for ref.
func (j *Join) ForceIndex(ref string, indexes ...string) *Join {
	return j.AddIndexHint(ref, IndexHint{Type: ForceIndex, Indexes: indexes})
}

// AddIndexHint registers an arbitrary hint for ref. Hints only render under
// MySQL.
func (j *Join) AddIndexHint(ref string, hint IndexHint) *Join {
	j.hints.Add(ref, hint)
	return j
}

// Apply calls a configuration method by name. It exists for textual
// front ends; "as"/"alias" take one argument, "left", "right" and "inner"
// take none. Any other name fails with ErrUnsupportedMethod.
func (j *Join) Apply(method string, args ...string) error {
	switch strings.ToLower(method) {
	case "as", "alias":
		if len(args) != 1 {
			return fmt.Errorf("join %s: expected 1 argument, got %d", method, len(args))
		}
		j.As(args[0])
	case "left":
		j.Left()
	case "right":
		j.Right()
	case "inner":
		j.Inner()
	default:
		return fmt.Errorf("%w: join.%s", ErrUnsupportedMethod, method)
	}
	return nil
}

// Clone returns a copy whose condition set and index hints are
// independent of j.
func (j *Join) Clone() *Join {
	c := *j
	c.conditions = j.conditions.Clone()
	c.hints = j.hints.Clone()
	return &c
}

// ToSQL renders " [KIND ]JOIN table[ AS alias][ hints][ ON (conditions)]"
// including the leading space.
func (j *Join) ToSQL(d dialect.Dialect, args *params.List) (string, error) {
	var sb strings.Builder
	if kw := j.kind.String(); kw != "" {
		sb.WriteString(" ")
		sb.WriteString(kw)
	}
	sb.WriteString(" JOIN ")
	sb.WriteString(j.Table)
	if j.alias != "" {
		sb.WriteString(" AS ")
		sb.WriteString(j.alias)
	}

	if d.Name() == dialect.MySQL {
		if j.hints.Defined(j.alias) {
			sb.WriteString(" ")
			sb.WriteString(j.hints.SQL(j.alias))
		} else if j.hints.Defined(j.Table) {
			sb.WriteString(" ")
			sb.WriteString(j.hints.SQL(j.Table))
		}
	}

	if j.conditions.HasEntries() {
		on, err := j.conditions.ToSQL(d, args)
		if err != nil {
			return "", err
		}
		sb.WriteString(" ON (")
		sb.WriteString(on)
		sb.WriteString(")")
	}
	return sb.String(), nil
}
