// Package managers provides CRUDManager, the statement assembler that turns a
// table configuration, conditions, joins, ordering and payloads into SQL
// plus an ordered parameter list.
package managers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bawdo/crudsql/dialect"
	"github.com/bawdo/crudsql/nodes"
	"github.com/bawdo/crudsql/params"
	"github.com/bawdo/crudsql/plugins"
)

var (
	// ErrModeUndefined is returned when no statement mode is set.
	ErrModeUndefined = errors.New("statement mode is not defined")
	// ErrNoTable is returned when the table name is empty.
	ErrNoTable = errors.New("table name is empty")
	// ErrEmptyPayload is returned for INSERT or UPDATE without columns.
	ErrEmptyPayload = errors.New("statement has no columns to write")
)

// Mode is the kind of statement a CRUDManager renders.
type Mode int

const (
	ModeUndefined Mode = iota
	ModeSelect
	ModeInsert
	ModeUpdate
	ModeDelete
)

// String returns the SQL verb for the mode.
func (m Mode) String() string {
	switch m {
	case ModeSelect:
		return "SELECT"
	case ModeInsert:
		return "INSERT"
	case ModeUpdate:
		return "UPDATE"
	case ModeDelete:
		return "DELETE"
	default:
		return "UNDEFINED"
	}
}

// Assignment is one column of an INSERT or UPDATE payload. A nil Value
// marks a bare column: its own name is used as the value, bound under that
// name in placeholder modes so the real value can be supplied later with
// params.List.Set.
type Assignment struct {
	Column string
	Value  nodes.Value
}

// Assign creates "column = value". value is classified with nodes.V.
func Assign(column string, value any) Assignment {
	return Assignment{Column: column, Value: nodes.V(value)}
}

// Bare creates a bare column entry.
func Bare(column string) Assignment {
	return Assignment{Column: column}
}

// Ordering is one ORDER BY item. Direction is emitted as given.
type Ordering struct {
	Column    string
	Direction string
}

// CRUDManager is a reusable statement template. Calling Select, Insert,
// Update or Delete switches the statement mode; the table, conditions,
// joins, ordering and limits are kept across switches. A CRUDManager must
// not be mutated while it is being rendered, but every render uses its own
// parameter list, so concurrent renders of an unchanging manager are safe.
type CRUDManager struct {
	treeManager
	config Config

	Table     string
	mode      Mode
	selected  []string
	insert    []Assignment
	update    []Assignment
	where     *nodes.Conditions
	joins     []*nodes.Join
	orders    []Ordering
	limit     int
	offset    int
	returning string
}

// New creates a CRUDManager for table in SELECT mode selecting "*".
func New(table string, opts ...Option) *CRUDManager {
	cfg := newConfig(opts)
	return &CRUDManager{
		config:   cfg,
		Table:    table,
		mode:     ModeSelect,
		selected: []string{"*"},
		where:    nodes.NewConditions().SetQuoteColumns(cfg.QuoteColumn),
	}
}

// Config returns a copy of the manager's configuration.
func (m *CRUDManager) Config() Config { return m.config }

// Dialect returns the dialect statements are rendered for.
func (m *CRUDManager) Dialect() dialect.Dialect {
	if m.config.Dialect == nil {
		return newConfig(nil).Dialect
	}
	return m.config.Dialect
}

// Mode returns the active statement mode.
func (m *CRUDManager) Mode() Mode { return m.mode }

// Select switches to SELECT mode with the given columns ("*" if none).
func (m *CRUDManager) Select(columns ...string) *CRUDManager {
	if len(columns) == 0 {
		columns = []string{"*"}
	}
	m.selected = columns
	m.mode = ModeSelect
	return m
}

// Insert switches to INSERT mode with the given payload.
func (m *CRUDManager) Insert(assignments ...Assignment) *CRUDManager {
	m.insert = assignments
	m.mode = ModeInsert
	return m
}

// InsertColumns switches to INSERT mode with a list of bare columns.
func (m *CRUDManager) InsertColumns(columns ...string) *CRUDManager {
	as := make([]Assignment, len(columns))
	for i, c := range columns {
		as[i] = Bare(c)
	}
	return m.Insert(as...)
}

// Update switches to UPDATE mode with the given SET payload.
func (m *CRUDManager) Update(assignments ...Assignment) *CRUDManager {
	m.update = assignments
	m.mode = ModeUpdate
	return m
}

// Delete switches to DELETE mode.
func (m *CRUDManager) Delete() *CRUDManager {
	m.mode = ModeDelete
	return m
}

// Where appends "column = value" to the WHERE conditions.
func (m *CRUDManager) Where(column string, value any) *CRUDManager {
	m.Conditions().Append(column, value)
	return m
}

// WhereExpr appends "left = value" with an expression on the left.
func (m *CRUDManager) WhereExpr(left nodes.Node, value any) *CRUDManager {
	m.Conditions().AppendExpr(left, value)
	return m
}

// WhereColumn appends a bare column condition.
func (m *CRUDManager) WhereColumn(column string) *CRUDManager {
	m.Conditions().AppendColumn(column)
	return m
}

// WhereRaw appends a stand-alone expression (a Node or raw SQL string).
func (m *CRUDManager) WhereRaw(expr any) *CRUDManager {
	m.Conditions().AppendRaw(expr)
	return m
}

// Conditions returns the WHERE condition set for direct manipulation,
// e.g. switching the connective with Or().
func (m *CRUDManager) Conditions() *nodes.Conditions {
	if m.where == nil {
		m.where = nodes.NewConditions().SetQuoteColumns(m.config.QuoteColumn)
	}
	return m.where
}

// Join adds a JOIN against table and returns it for configuration.
func (m *CRUDManager) Join(table string) *nodes.Join {
	j := nodes.NewJoin(table)
	j.Conditions().SetQuoteColumns(m.config.QuoteColumn)
	m.joins = append(m.joins, j)
	return j
}

// AddJoin appends an already-configured join. Like Join, it applies the
// manager's column quoting to the join's ON conditions.
func (m *CRUDManager) AddJoin(j *nodes.Join) *CRUDManager {
	j.Conditions().SetQuoteColumns(m.config.QuoteColumn)
	m.joins = append(m.joins, j)
	return m
}

// Joins returns the registered joins.
func (m *CRUDManager) Joins() []*nodes.Join { return m.joins }

// Order appends an ORDER BY item. An empty direction means "desc".
func (m *CRUDManager) Order(column, direction string) *CRUDManager {
	if direction == "" {
		direction = "desc"
	}
	m.orders = append(m.orders, Ordering{Column: column, Direction: direction})
	return m
}

// Limit sets the row limit; zero removes it.
func (m *CRUDManager) Limit(n int) *CRUDManager {
	m.limit = n
	return m
}

// Offset sets the row offset; zero removes it. An offset without a limit
// is not rendered.
func (m *CRUDManager) Offset(n int) *CRUDManager {
	m.offset = n
	return m
}

// Returning sets the column for INSERT ... RETURNING. It is rendered for
// every dialect; checking that the dialect supports it is up to the caller.
func (m *CRUDManager) Returning(column string) *CRUDManager {
	m.returning = column
	return m
}

// Use registers a transformer plugin.
func (m *CRUDManager) Use(t plugins.Transformer) *CRUDManager {
	m.addTransformer(t)
	return m
}

// Build renders the statement for the active mode and discards the
// parameters.
func (m *CRUDManager) Build() (string, error) {
	sql, _, err := m.ToSQL()
	return sql, err
}

// ToSQL renders the statement with a fresh parameter list in the
// configured placeholder mode.
func (m *CRUDManager) ToSQL() (string, []params.Param, error) {
	args := params.New(m.config.Placeholder)
	sql, err := m.Render(args)
	if err != nil {
		return "", nil, err
	}
	return sql, args.Entries(), nil
}

// Render renders the statement, appending bound values to args. args
// should be empty and in the configured placeholder mode.
func (m *CRUDManager) Render(args *params.List) (string, error) {
	if m.mode == ModeUndefined {
		return "", ErrModeUndefined
	}
	if m.config.Dialect == nil {
		// Zero-value manager: render a copy with the default configuration
		// so concurrent renders never write to m.
		c := *m
		c.config = newConfig(nil)
		return c.Render(args)
	}
	if m.Table == "" {
		return "", fmt.Errorf("%s: %w", m.mode, ErrNoTable)
	}
	stmt, err := m.statement()
	if err != nil {
		return "", err
	}

	var sql string
	switch m.mode {
	case ModeSelect:
		sql, err = m.buildSelect(stmt, args)
	case ModeInsert:
		sql, err = m.buildInsert(stmt, args)
	case ModeUpdate:
		sql, err = m.buildUpdate(stmt, args)
	case ModeDelete:
		sql, err = m.buildDelete(stmt, args)
	default:
		return "", fmt.Errorf("%w: %d", ErrModeUndefined, int(m.mode))
	}
	if err != nil {
		return "", err
	}
	if m.config.Trim {
		sql = strings.TrimSpace(sql)
	}
	return sql, nil
}

// tableName returns the table, quoted when table quoting is on.
func (m *CRUDManager) tableName() string {
	if m.config.QuoteTable {
		return m.config.Dialect.QuoteIdentifier(m.Table)
	}
	return m.Table
}

// column returns a column name, quoted when column quoting is on.
func (m *CRUDManager) column(name string) string {
	if m.config.QuoteColumn {
		return m.config.Dialect.QuoteIdentifier(name)
	}
	return name
}

// writeWhere writes " WHERE conditions" when there are any.
func (m *CRUDManager) writeWhere(sb *strings.Builder, where *nodes.Conditions, args *params.List) error {
	if !where.HasEntries() {
		return nil
	}
	s, err := where.ToSQL(m.config.Dialect, args)
	if err != nil {
		return err
	}
	sb.WriteString(" WHERE ")
	sb.WriteString(s)
	return nil
}

// writeLimit writes the dialect's LIMIT clause when a limit is set.
func (m *CRUDManager) writeLimit(sb *strings.Builder) {
	if s := m.config.Dialect.LimitOffset(m.limit, m.offset); s != "" {
		sb.WriteString(" ")
		sb.WriteString(s)
	}
}

// assignmentValue renders the value side of an INSERT/UPDATE entry.
func (m *CRUDManager) assignmentValue(a Assignment, args *params.List) (string, error) {
	v := a.Value
	if v == nil {
		v = nodes.Scalar{Value: a.Column}
	}
	return nodes.RenderValue(v, a.Column, m.config.Dialect, args)
}
