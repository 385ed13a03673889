// Package params holds the ordered list of bound values collected while a
// statement is rendered.
package params

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Mode selects how a bound value is represented in rendered SQL.
type Mode int

const (
	// None inlines escaped literals; Bind is never called by the renderer.
	None Mode = iota
	// Positional emits "?" for every bound value.
	Positional
	// Named emits ":key".
	Named
	// Numbered emits "$1", "$2", ... (PostgreSQL native style).
	Numbered
)

var (
	// ErrUnknownMode is returned by ParseMode.
	ErrUnknownMode = errors.New("unknown placeholder mode")
	// ErrNamedConflict is returned by NamedArgs when one key is bound to
	// two different values. A named placeholder can carry only one value.
	ErrNamedConflict = errors.New("named parameter bound to conflicting values")
)

// String returns the configuration name for this mode.
func (m Mode) String() string {
	switch m {
	case None:
		return "none"
	case Positional:
		return "positional"
	case Named:
		return "named"
	case Numbered:
		return "numbered"
	default:
		return "Mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// ParseMode parses a textual placeholder mode. "true" and "?" mean
// positional, "false" and "" mean none.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "false", "off":
		return None, nil
	case "positional", "true", "on", "?":
		return Positional, nil
	case "named", ":":
		return Named, nil
	case "numbered", "$":
		return Numbered, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Param is one bound value. Key is the column name the value was bound
// for; the same key may appear more than once.
type Param struct {
	Key   string
	Value any
}

// List is an append-only sequence of bound values. The nth entry
// corresponds to the nth placeholder in the rendered SQL. A List belongs to
// a single render pass and must not be shared between goroutines.
type List struct {
	mode    Mode
	entries []Param
}

// New creates an empty List for the given mode.
func New(mode Mode) *List {
	return &List{mode: mode}
}

// Mode returns the placeholder mode of the list.
func (l *List) Mode() Mode { return l.mode }

// Bind appends (key, value) and returns the placeholder token to splice
// into the SQL. In None mode the value is still recorded and "?" returned.
func (l *List) Bind(key string, value any) string {
	l.entries = append(l.entries, Param{Key: key, Value: value})
	switch l.mode {
	case Named:
		return ":" + key
	case Numbered:
		return "$" + strconv.Itoa(len(l.entries))
	default:
		return "?"
	}
}

// Len returns the number of bound values.
func (l *List) Len() int { return len(l.entries) }

// Entries returns a copy of the bound values in bind order.
func (l *List) Entries() []Param {
	out := make([]Param, len(l.entries))
	copy(out, l.entries)
	return out
}

// Values returns the bound values in bind order, suitable for positional
// driver arguments.
func (l *List) Values() []any {
	out := make([]any, len(l.entries))
	for i, p := range l.entries {
		out[i] = p.Value
	}
	return out
}

// Set overwrites the value of every entry bound under key and reports how
// many entries changed. It is how callers supply values for bare-column
// entries, which bind the column name itself.
func (l *List) Set(key string, value any) int {
	n := 0
	for i := range l.entries {
		if l.entries[i].Key == key {
			l.entries[i].Value = value
			n++
		}
	}
	return n
}

// NamedArgs returns the entries as database/sql named arguments, one per
// distinct key. A key bound more than once must carry the same value every
// time, otherwise ErrNamedConflict is returned.
func (l *List) NamedArgs() ([]any, error) {
	first := make(map[string]any, len(l.entries))
	out := make([]any, 0, len(l.entries))
	for _, p := range l.entries {
		if prev, ok := first[p.Key]; ok {
			if !reflect.DeepEqual(prev, p.Value) {
				return nil, fmt.Errorf("%w: :%s is %v and %v", ErrNamedConflict, p.Key, prev, p.Value)
			}
			continue
		}
		first[p.Key] = p.Value
		out = append(out, sql.Named(p.Key, p.Value))
	}
	return out, nil
}
