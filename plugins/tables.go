package plugins

// TableRef holds a table referenced by a statement. Ref is the name columns
// should be qualified with (the join alias when there is one) and Name is
// the underlying table name, used for matching.
type TableRef struct {
	Ref  string
	Name string
}

// CollectTables returns the main table followed by every JOIN target.
func CollectTables(stmt *Statement) []TableRef {
	var refs []TableRef
	if stmt.Table != "" {
		refs = append(refs, TableRef{Ref: stmt.Table, Name: stmt.Table})
	}
	for _, j := range stmt.Joins {
		ref := TableRef{Ref: j.Table, Name: j.Table}
		if a := j.Alias(); a != "" {
			ref.Ref = a
		}
		refs = append(refs, ref)
	}
	return refs
}
