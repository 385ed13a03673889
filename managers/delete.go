package managers

import (
	"strings"

	"github.com/bawdo/crudsql/params"
	"github.com/bawdo/crudsql/plugins"
)

func (m *CRUDManager) buildDelete(stmt *plugins.Statement, args *params.List) (string, error) {
	var sb strings.Builder
	sb.WriteString("DELETE FROM ")
	sb.WriteString(m.tableName())
	if err := m.writeWhere(&sb, stmt.Where, args); err != nil {
		return "", err
	}
	m.writeLimit(&sb)
	return sb.String(), nil
}
