package managers

import (
	"fmt"
	"strings"

	"github.com/bawdo/crudsql/params"
	"github.com/bawdo/crudsql/plugins"
)

func (m *CRUDManager) buildInsert(_ *plugins.Statement, args *params.List) (string, error) {
	if len(m.insert) == 0 {
		return "", fmt.Errorf("INSERT INTO %s: %w", m.Table, ErrEmptyPayload)
	}

	cols := make([]string, len(m.insert))
	vals := make([]string, len(m.insert))
	for i, a := range m.insert {
		cols[i] = m.column(a.Column)
		v, err := m.assignmentValue(a, args)
		if err != nil {
			return "", fmt.Errorf("column %q: %w", a.Column, err)
		}
		vals[i] = v
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(m.tableName())
	sb.WriteString(" (")
	sb.WriteString(strings.Join(cols, ","))
	sb.WriteString(") VALUES (")
	sb.WriteString(strings.Join(vals, ","))
	sb.WriteString(")")
	if m.returning != "" {
		sb.WriteString(" RETURNING ")
		sb.WriteString(m.column(m.returning))
	}
	return sb.String(), nil
}
