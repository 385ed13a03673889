package nodes

import (
	"slices"
	"strings"
)

// HintType is the MySQL index hint verb.
type HintType int

const (
	UseIndex HintType = iota
	IgnoreIndex
	ForceIndex
)

var hintTypeSQL = [...]string{
	UseIndex:    "USE INDEX",
	IgnoreIndex: "IGNORE INDEX",
	ForceIndex:  "FORCE INDEX",
}

// HintScope restricts an index hint to part of query processing.
type HintScope int

const (
	ScopeAll HintScope = iota
	ScopeJoin
	ScopeOrderBy
	ScopeGroupBy
)

var hintScopeSQL = [...]string{
	ScopeAll:     "",
	ScopeJoin:    " FOR JOIN",
	ScopeOrderBy: " FOR ORDER BY",
	ScopeGroupBy: " FOR GROUP BY",
}

// IndexHint is one MySQL index hint, e.g. USE INDEX FOR JOIN (idx_a, idx_b).
type IndexHint struct {
	Type    HintType
	Scope   HintScope
	Indexes []string
}

// SQL renders the hint.
func (h IndexHint) SQL() string {
	return hintTypeSQL[h.Type] + hintScopeSQL[h.Scope] + " (" + strings.Join(h.Indexes, ", ") + ")"
}

// IndexHints holds hints keyed by table name or alias, in registration
// order per key.
type IndexHints struct {
	byRef map[string][]IndexHint
}

// Add registers a hint for ref.
func (h *IndexHints) Add(ref string, hint IndexHint) {
	if h.byRef == nil {
		h.byRef = make(map[string][]IndexHint)
	}
	h.byRef[ref] = append(h.byRef[ref], hint)
}

// Clone returns a copy that shares no state with h.
func (h IndexHints) Clone() IndexHints {
	if h.byRef == nil {
		return IndexHints{}
	}
	c := IndexHints{byRef: make(map[string][]IndexHint, len(h.byRef))}
	for ref, hints := range h.byRef {
		c.byRef[ref] = slices.Clone(hints)
	}
	return c
}

// Defined reports whether any hint is registered for ref.
func (h *IndexHints) Defined(ref string) bool {
	return ref != "" && len(h.byRef[ref]) > 0
}

// SQL renders all hints for ref separated by spaces.
func (h *IndexHints) SQL(ref string) string {
	hints := h.byRef[ref]
	parts := make([]string, len(hints))
	for i, hint := range hints {
		parts[i] = hint.SQL()
	}
	return strings.Join(parts, " ")
}
