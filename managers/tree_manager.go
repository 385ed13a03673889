package managers

import (
	"github.com/bawdo/crudsql/nodes"
	"github.com/bawdo/crudsql/plugins"
)

// treeManager holds the transformer pipeline a CRUDManager runs before
// every render.
type treeManager struct {
	transformers []plugins.Transformer
}

// addTransformer appends a transformer plugin to the pipeline.
func (tm *treeManager) addTransformer(t plugins.Transformer) {
	tm.transformers = append(tm.transformers, t)
}

// Transformers returns the registered transformer pipeline.
func (tm *treeManager) Transformers() []plugins.Transformer {
	return tm.transformers
}

// statement snapshots the parts of m that transformers may rewrite. The
// conditions and joins are cloned so a transformer never mutates the
// manager itself.
func (m *CRUDManager) statement() (*plugins.Statement, error) {
	where := m.where
	if where == nil {
		where = nodes.NewConditions().SetQuoteColumns(m.config.QuoteColumn)
	}
	stmt := &plugins.Statement{
		Table:        m.Table,
		Where:        where.Clone(),
		QuoteColumns: m.config.QuoteColumn,
	}
	if len(m.joins) > 0 {
		stmt.Joins = make([]*nodes.Join, len(m.joins))
		for i, j := range m.joins {
			stmt.Joins[i] = j.Clone()
		}
	}
	return m.transform(stmt)
}

// transform runs every registered transformer for the active mode.
func (m *CRUDManager) transform(stmt *plugins.Statement) (*plugins.Statement, error) {
	var err error
	for _, t := range m.transformers {
		switch m.mode {
		case ModeSelect:
			stmt, err = t.TransformSelect(stmt)
		case ModeInsert:
			stmt, err = t.TransformInsert(stmt)
		case ModeUpdate:
			stmt, err = t.TransformUpdate(stmt)
		case ModeDelete:
			stmt, err = t.TransformDelete(stmt)
		}
		if err != nil {
			return nil, err
		}
	}
	return stmt, nil
}
