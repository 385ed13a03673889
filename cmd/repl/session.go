package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ergochat/readline"
	"github.com/rs/zerolog"

	"github.com/bawdo/crudsql/dialect"
	"github.com/bawdo/crudsql/internal/config"
	"github.com/bawdo/crudsql/internal/db"
	"github.com/bawdo/crudsql/managers"
	"github.com/bawdo/crudsql/nodes"
	"github.com/bawdo/crudsql/plugins"
)

var errNoTable = errors.New("no table set (use 'table <name>' first)")

// joinSpec records a join so it can be replayed on every rebuild.
type joinSpec struct {
	table string
	kind  string // "", "left", "right" or "inner"
	alias string
	on    []string
	hints []hintSpec
}

type hintSpec struct {
	ref  string
	hint nodes.IndexHint
}

// statement is the dialect-independent description of the statement being
// built. A fresh CRUDManager is assembled from it whenever SQL is needed,
// so dialect and quoting changes apply to everything entered so far.
type statement struct {
	table     string
	mode      managers.Mode
	columns   []string
	payload   []managers.Assignment
	where     []whereEntry
	or        bool
	joins     []*joinSpec
	orders    []managers.Ordering
	limit     int
	offset    int
	returning string
}

// Session holds the REPL state: the statement under construction, the
// rendering settings, enabled plugins and the database connection.
type Session struct {
	settings    config.Config
	trim        bool
	stmt        statement
	plugins     pluginRegistry     // enabled plugins
	opa         *opaSettings       // nil when OPA is off
	configurers []pluginConfigurer // all known plugins
	commands    []commandEntry     // command registry (sorted by prefix length desc)
	conn        *db.Conn           // nil when disconnected
	lastDSN     string
	rl          *readline.Instance
	log         zerolog.Logger
	out         io.Writer // destination for REPL output (default os.Stdout)
}

// NewSession creates a session with the given settings.
func NewSession(cfg config.Config, rl *readline.Instance, log zerolog.Logger) *Session {
	s := &Session{
		settings: cfg,
		rl:       rl,
		log:      log,
		out:      os.Stdout,
	}
	if _, err := dialect.ForName(s.settings.Engine); err != nil {
		s.log.Warn().Str("engine", s.settings.Engine).Msg("unknown engine, using mysql")
		s.settings.Engine = string(dialect.MySQL)
	}
	s.stmt.mode = managers.ModeSelect
	s.configurers = []pluginConfigurer{
		{name: "softdelete", configure: configureSoftdelete},
		{name: "opa", configure: configureOPA},
	}
	s.initCommands()
	if cfg.OPAURL != "" && cfg.OPAPolicy != "" {
		s.opa = &opaSettings{url: cfg.OPAURL, policy: cfg.OPAPolicy, input: map[string]any{}}
		s.registerOPA()
	}
	return s
}

// pluginNames returns the names of all known plugins (for tab completion).
func (s *Session) pluginNames() []string {
	names := make([]string, len(s.configurers))
	for i, c := range s.configurers {
		names[i] = c.name
	}
	return names
}

// engine returns the canonical dialect name of the session.
func (s *Session) engine() dialect.Name {
	d, err := dialect.ForName(s.settings.Engine)
	if err != nil {
		return dialect.MySQL
	}
	return d.Name()
}

// Manager assembles a CRUDManager from the recorded statement and the
// current settings, with enabled plugins attached.
func (s *Session) Manager() (*managers.CRUDManager, error) {
	if s.stmt.table == "" {
		return nil, errNoTable
	}
	opts, err := s.settings.ManagerOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, managers.WithTrim(s.trim))
	m := managers.New(s.stmt.table, opts...)

	switch s.stmt.mode {
	case managers.ModeInsert:
		m.Insert(s.stmt.payload...)
	case managers.ModeUpdate:
		m.Update(s.stmt.payload...)
	case managers.ModeDelete:
		m.Delete()
	default:
		m.Select(s.stmt.columns...)
	}

	for _, w := range s.stmt.where {
		switch w.kind {
		case whereBare:
			m.WhereColumn(w.column)
		case whereExpr:
			m.WhereRaw(w.expr)
		default:
			m.Where(w.column, w.value)
		}
	}
	if s.stmt.or {
		m.Conditions().Or()
	}

	for _, js := range s.stmt.joins {
		j := m.Join(js.table)
		if js.kind != "" {
			if err := j.Apply(js.kind); err != nil {
				return nil, err
			}
		}
		if js.alias != "" {
			if err := j.Apply("as", js.alias); err != nil {
				return nil, err
			}
		}
		j.On(js.on...)
		for _, h := range js.hints {
			j.AddIndexHint(h.ref, h.hint)
		}
	}

	for _, o := range s.stmt.orders {
		m.Order(o.Column, o.Direction)
	}
	m.Limit(s.stmt.limit).Offset(s.stmt.offset)
	if s.stmt.returning != "" {
		m.Returning(s.stmt.returning)
	}
	s.plugins.applyTo(func(t plugins.Transformer) { m.Use(t) })
	return m, nil
}

// GenerateSQL renders the current statement.
func (s *Session) GenerateSQL() (string, error) {
	m, err := s.Manager()
	if err != nil {
		return "", err
	}
	return m.Build()
}

// Execute parses and runs a single REPL command.
func (s *Session) Execute(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	lower := strings.ToLower(line)

	for _, cmd := range s.commands {
		if strings.HasSuffix(cmd.prefix, " ") {
			if strings.HasPrefix(lower, cmd.prefix) {
				return cmd.handler(strings.TrimSpace(line[len(cmd.prefix):]))
			}
		} else if lower == cmd.prefix {
			return cmd.handler("")
		}
	}

	word := strings.Fields(line)[0]
	return fmt.Errorf("unknown command: %s (type 'help' for commands)", word)
}

func (s *Session) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}

// --- connection ---

func (s *Session) cmdConnect(args string) error {
	dsn := strings.TrimSpace(args)
	if s.conn != nil {
		return errors.New("already connected (use 'disconnect' first)")
	}
	if dsn == "" {
		dsn = s.lastDSN
	}
	if dsn == "" {
		dsn = s.settings.DatabaseURL
	}
	if dsn == "" {
		return errors.New("usage: connect <dsn>")
	}

	conn, err := db.Open(context.Background(), s.settings.Engine, dsn, db.WithLogger(s.log))
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	s.conn = conn
	s.lastDSN = dsn
	s.printf("  Connected to %s (%s)\n", db.SanitizeDSN(dsn), conn.Engine())
	return nil
}

func (s *Session) cmdDisconnect() error {
	if s.conn == nil {
		return errors.New("not connected")
	}
	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	s.printf("  Disconnected\n")
	return nil
}

// cmdExec runs the current statement. SELECT and INSERT ... RETURNING
// print rows; everything else prints the affected row count.
func (s *Session) cmdExec() error {
	if s.conn == nil {
		return errors.New("not connected (use 'connect <dsn>' first)")
	}
	m, err := s.Manager()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if m.Mode() == managers.ModeSelect || (m.Mode() == managers.ModeInsert && s.stmt.returning != "") {
		res, err := s.conn.Query(ctx, m)
		if err != nil {
			return err
		}
		s.printf("%s", res)
		return nil
	}

	res, err := s.conn.Exec(ctx, m)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	s.printf("  %d row(s) affected\n", n)
	return nil
}

func (s *Session) cmdTables() error {
	if s.conn == nil {
		return errors.New("not connected")
	}
	tables, err := s.conn.Tables(context.Background())
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		s.printf("  (no tables)\n")
		return nil
	}
	for _, t := range tables {
		s.printf("  %s\n", t)
	}
	return nil
}

// schemaTables and schemaColumns feed the completer. Lookup errors just
// mean no candidates.
func (s *Session) schemaTables() []string {
	if s.conn == nil {
		return nil
	}
	tables, err := s.conn.Tables(context.Background())
	if err != nil {
		s.log.Debug().Err(err).Msg("table completion")
		return nil
	}
	return tables
}

func (s *Session) schemaColumns(table string) []string {
	if s.conn == nil {
		return nil
	}
	cols, err := s.conn.Columns(context.Background(), table)
	if err != nil {
		s.log.Debug().Err(err).Str("table", table).Msg("column completion")
		return nil
	}
	return cols
}
