package managers

import (
	"regexp"
	"strings"

	"github.com/bawdo/crudsql/params"
	"github.com/bawdo/crudsql/plugins"
)

// singleLetter matches select columns that are always quoted, since a lone
// letter is easily mistaken for a keyword or alias.
var singleLetter = regexp.MustCompile(`^[a-zA-Z]$`)

func (m *CRUDManager) buildSelect(stmt *plugins.Statement, args *params.List) (string, error) {
	d := m.config.Dialect
	cols := make([]string, len(m.selected))
	for i, c := range m.selected {
		if singleLetter.MatchString(c) {
			c = d.QuoteIdentifier(c)
		}
		cols[i] = c
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(cols, ","))
	sb.WriteString(" FROM ")
	sb.WriteString(m.tableName())

	for _, j := range stmt.Joins {
		s, err := j.ToSQL(d, args)
		if err != nil {
			return "", err
		}
		sb.WriteString(s)
	}

	if err := m.writeWhere(&sb, stmt.Where, args); err != nil {
		return "", err
	}

	if len(m.orders) > 0 {
		items := make([]string, len(m.orders))
		for i, o := range m.orders {
			items[i] = m.column(o.Column) + " " + o.Direction
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(items, ","))
	}

	m.writeLimit(&sb)
	return sb.String(), nil
}
