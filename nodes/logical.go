package nodes

// AllOf joins exprs with AND as stand-alone condition entries.
func AllOf(exprs ...Node) *Conditions {
	c := NewConditions()
	for _, e := range exprs {
		c.AppendRaw(e)
	}
	return c
}

// AnyOf joins exprs with OR. The result is parenthesised so it can be
// appended to an AND-joined set without changing precedence.
func AnyOf(exprs ...Node) *Grouping {
	c := NewConditions().Or()
	for _, e := range exprs {
		c.AppendRaw(e)
	}
	return Group(c)
}
