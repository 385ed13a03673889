package managers

import (
	"fmt"
	"strings"

	"github.com/bawdo/crudsql/params"
	"github.com/bawdo/crudsql/plugins"
)

// buildUpdate renders SET entries before WHERE, so SET values take the
// lower parameter positions.
func (m *CRUDManager) buildUpdate(stmt *plugins.Statement, args *params.List) (string, error) {
	if len(m.update) == 0 {
		return "", fmt.Errorf("UPDATE %s: %w", m.Table, ErrEmptyPayload)
	}

	sets := make([]string, len(m.update))
	for i, a := range m.update {
		v, err := m.assignmentValue(a, args)
		if err != nil {
			return "", fmt.Errorf("column %q: %w", a.Column, err)
		}
		sets[i] = m.column(a.Column) + " = " + v
	}

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(m.tableName())
	sb.WriteString(" SET ")
	sb.WriteString(strings.Join(sets, ", "))
	if err := m.writeWhere(&sb, stmt.Where, args); err != nil {
		return "", err
	}
	m.writeLimit(&sb)
	return sb.String(), nil
}
