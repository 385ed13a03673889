package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bawdo/crudsql/dialect"
	"github.com/bawdo/crudsql/managers"
	"github.com/bawdo/crudsql/nodes"
	"github.com/bawdo/crudsql/params"
)

func (s *Session) cmdDialect(args string) error {
	d, err := dialect.ForName(args)
	if err != nil {
		return err
	}
	s.settings.Engine = string(d.Name())
	if s.conn != nil && s.conn.Engine() != d.Name() {
		s.printf("  Warning: connected to %s but dialect is now %s\n", s.conn.Engine(), d.Name())
	}
	s.printf("  Dialect: %s\n", d.Name())
	return nil
}

func (s *Session) cmdTable(args string) error {
	name := strings.TrimSpace(args)
	if name == "" || strings.ContainsAny(name, " \t") {
		return errors.New("usage: table <name>")
	}
	s.stmt.table = name
	s.printf("  Table: %s\n", name)
	return nil
}

func (s *Session) cmdSelect(args string) error {
	var cols []string
	for _, c := range splitTopLevelCommas(args) {
		if c != "" {
			cols = append(cols, c)
		}
	}
	s.stmt.columns = cols
	s.stmt.mode = managers.ModeSelect
	return nil
}

func (s *Session) cmdInsert(args string) error {
	payload, err := parseAssignments(args)
	if err != nil {
		return err
	}
	s.stmt.payload = payload
	s.stmt.mode = managers.ModeInsert
	return nil
}

func (s *Session) cmdUpdate(args string) error {
	payload, err := parseAssignments(args)
	if err != nil {
		return err
	}
	s.stmt.payload = payload
	s.stmt.mode = managers.ModeUpdate
	return nil
}

func (s *Session) cmdDelete() error {
	s.stmt.mode = managers.ModeDelete
	return nil
}

func (s *Session) cmdWhere(args string) error {
	w, err := parseCondition(args)
	if err != nil {
		return err
	}
	s.stmt.where = append(s.stmt.where, w)
	return nil
}

func (s *Session) cmdWhereRaw(args string) error {
	if args == "" {
		return errors.New("usage: where raw <expression>")
	}
	s.stmt.where = append(s.stmt.where, whereEntry{kind: whereExpr, expr: nodes.Raw(args)})
	return nil
}

// cmdJoin parses "<table> [as <alias>] [on <expr>]".
func (s *Session) cmdJoin(args, kind string) error {
	tokens := strings.Fields(args)
	if len(tokens) == 0 {
		return errors.New("usage: [left|right|inner] join <table> [as <alias>] [on <expr>]")
	}
	js := &joinSpec{table: tokens[0], kind: kind}
	rest := tokens[1:]
	if len(rest) >= 2 && strings.EqualFold(rest[0], "as") {
		js.alias = rest[1]
		rest = rest[2:]
	}
	if len(rest) > 0 {
		if !strings.EqualFold(rest[0], "on") || len(rest) == 1 {
			return fmt.Errorf("expected 'on <expr>', got %q", strings.Join(rest, " "))
		}
		js.on = append(js.on, strings.Join(rest[1:], " "))
	}
	s.stmt.joins = append(s.stmt.joins, js)
	return nil
}

// cmdOn adds a condition to the most recent join.
func (s *Session) cmdOn(args string) error {
	if len(s.stmt.joins) == 0 {
		return errors.New("no join to add a condition to")
	}
	if args == "" {
		return errors.New("usage: on <expr>")
	}
	js := s.stmt.joins[len(s.stmt.joins)-1]
	js.on = append(js.on, args)
	return nil
}

var hintTypes = map[string]nodes.HintType{
	"use":    nodes.UseIndex,
	"ignore": nodes.IgnoreIndex,
	"force":  nodes.ForceIndex,
}

var hintScopes = map[string]nodes.HintScope{
	"join":  nodes.ScopeJoin,
	"order": nodes.ScopeOrderBy,
	"group": nodes.ScopeGroupBy,
}

// cmdHint parses "<ref> use|ignore|force [for join|order|group] <idx,...>"
// and attaches the hint to the most recent join.
func (s *Session) cmdHint(args string) error {
	const usage = "usage: hint <ref> use|ignore|force [for join|order|group] <index,...>"
	if len(s.stmt.joins) == 0 {
		return errors.New("no join to hint (hints apply to the most recent join)")
	}
	tokens := strings.Fields(args)
	if len(tokens) < 3 {
		return errors.New(usage)
	}
	typ, ok := hintTypes[strings.ToLower(tokens[1])]
	if !ok {
		return errors.New(usage)
	}
	hint := nodes.IndexHint{Type: typ}
	rest := tokens[2:]
	if strings.EqualFold(rest[0], "for") {
		if len(rest) < 3 {
			return errors.New(usage)
		}
		scope, ok := hintScopes[strings.ToLower(rest[1])]
		if !ok {
			return errors.New(usage)
		}
		hint.Scope = scope
		rest = rest[2:]
	}
	for _, idx := range splitTopLevelCommas(strings.Join(rest, " ")) {
		hint.Indexes = append(hint.Indexes, idx)
	}
	js := s.stmt.joins[len(s.stmt.joins)-1]
	js.hints = append(js.hints, hintSpec{ref: tokens[0], hint: hint})
	if s.engine() != dialect.MySQL {
		s.printf("  Note: index hints are only rendered for mysql\n")
	}
	return nil
}

func (s *Session) cmdOrder(args string) error {
	for _, item := range splitTopLevelCommas(args) {
		fields := strings.Fields(item)
		switch len(fields) {
		case 1:
			s.stmt.orders = append(s.stmt.orders, managers.Ordering{Column: fields[0], Direction: "ASC"})
		case 2:
			s.stmt.orders = append(s.stmt.orders, managers.Ordering{Column: fields[0], Direction: strings.ToUpper(fields[1])})
		default:
			return errors.New("usage: order <col> [asc|desc][, ...]")
		}
	}
	return nil
}

func parseCount(args, name string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", name, args)
	}
	return n, nil
}

func (s *Session) cmdLimit(args string) error {
	n, err := parseCount(args, "limit")
	if err != nil {
		return err
	}
	s.stmt.limit = n
	return nil
}

func (s *Session) cmdOffset(args string) error {
	n, err := parseCount(args, "offset")
	if err != nil {
		return err
	}
	s.stmt.offset = n
	if s.stmt.limit == 0 && n > 0 {
		s.printf("  Note: offset is only rendered together with a limit\n")
	}
	return nil
}

func (s *Session) cmdReturning(args string) error {
	s.stmt.returning = strings.TrimSpace(args)
	return nil
}

func (s *Session) cmdPlaceholder(args string) error {
	mode, err := params.ParseMode(args)
	if err != nil {
		return err
	}
	s.settings.Placeholder = mode.String()
	s.printf("  Placeholders: %s\n", mode)
	return nil
}

func (s *Session) cmdQuote(args string) error {
	arg := strings.ToLower(strings.TrimSpace(args))
	if arg != "auto" {
		on, err := parseOnOff(arg)
		if err != nil {
			return err
		}
		arg = "off"
		if on {
			arg = "on"
		}
	}
	s.settings.Quote = arg
	s.printf("  Quoting: %s\n", arg)
	return nil
}

func (s *Session) cmdTrim(args string) error {
	on, err := parseOnOff(args)
	if err != nil {
		return err
	}
	s.trim = on
	return nil
}

func (s *Session) cmdSQL() error {
	sql, err := s.GenerateSQL()
	if err != nil {
		return err
	}
	s.printf("  %s;\n", sql)
	return nil
}

// cmdParams renders the statement and lists the bound parameters.
func (s *Session) cmdParams() error {
	m, err := s.Manager()
	if err != nil {
		return err
	}
	sql, ps, err := m.ToSQL()
	if err != nil {
		return err
	}
	s.printf("  %s;\n", sql)
	if len(ps) == 0 {
		s.printf("  (no parameters, placeholder mode is %s)\n", m.Config().Placeholder)
		return nil
	}
	for i, p := range ps {
		s.printf("  %d. %s = %#v\n", i+1, p.Key, p.Value)
	}
	return nil
}

func (s *Session) cmdPlugin(args string) error {
	parts := strings.Fields(args)
	if len(parts) == 0 {
		return errors.New("usage: plugin <name> [args] | plugin off [name]")
	}
	name := strings.ToLower(parts[0])
	if name == "off" {
		return s.cmdPluginOff(parts[1:])
	}
	for _, c := range s.configurers {
		if c.name == name {
			return c.configure(s, strings.TrimSpace(args[len(parts[0]):]))
		}
	}
	return fmt.Errorf("unknown plugin: %s", parts[0])
}

func (s *Session) cmdPluginOff(names []string) error {
	if len(names) == 0 {
		s.plugins.deregisterAll()
		s.opa = nil
		s.printf("  All plugins disabled\n")
		return nil
	}
	for _, n := range names {
		name := strings.ToLower(n)
		if !s.plugins.deregister(name) {
			return fmt.Errorf("plugin not enabled: %s", n)
		}
		if name == "opa" {
			s.opa = nil
		}
		s.printf("  %s disabled\n", n)
	}
	return nil
}

func (s *Session) cmdPlugins() {
	if len(s.plugins.entries) == 0 {
		s.printf("  No plugins enabled\n")
		return
	}
	for _, e := range s.plugins.entries {
		s.printf("  %s (%s)\n", e.name, e.status())
	}
}

func (s *Session) cmdReset() error {
	s.stmt = statement{table: s.stmt.table, mode: managers.ModeSelect}
	s.printf("  Statement reset\n")
	return nil
}

func (s *Session) cmdStatus() {
	table := s.stmt.table
	if table == "" {
		table = "(none)"
	}
	quote := s.settings.Quote
	if quote == "" {
		quote = "auto"
	}
	s.printf("  Dialect: %s  Table: %s  Mode: %s  Placeholders: %s  Quoting: %s  Trim: %t\n",
		s.engine(), table, s.stmt.mode, s.settings.Placeholder, quote, s.trim)
	if s.conn != nil {
		s.printf("  Connected (%s)\n", s.conn.Engine())
	}
}

func (s *Session) cmdHelp() {
	_, _ = fmt.Fprintln(s.out, `
  Statement:
    table <name>                     Set the table
    select [cols]                    SELECT mode (comma-separated columns, default *)
    insert <col = val, ...>          INSERT mode; bare "col, col" binds column names
    update <col = val, ...>          UPDATE mode
    delete                           DELETE mode
    where <col> [= val]              Add a condition (also <, <=, >, >=, !=, like, is [not] null,
                                     [not] in (a, b), between a and b)
    where raw <expr>                 Add a raw SQL condition
    or | and                         Join conditions with OR / AND
    [left|right|inner] join <table> [as <alias>] [on <expr>]
    on <expr>                        Add a condition to the last join
    hint <ref> use|ignore|force [for join|order|group] <idx,...>   MySQL index hint on the last join
    order <col> [asc|desc]           Add ORDER BY
    limit <n> | offset <n>           Set LIMIT / OFFSET (0 removes)
    returning <col>                  INSERT ... RETURNING
    reset                            Clear the statement (keeps the table)

  Rendering:
    dialect <mysql|postgres|sqlite>  Set the dialect
    placeholder <none|positional|named|numbered>
    quote <auto|on|off>              Identifier quoting
    trim <on|off>                    Trim rendered SQL
    plugin softdelete [args]         Enable soft-delete filtering
    plugin off [name]                Disable plugins
    plugins                          List enabled plugins
    sql                              Show the SQL
    params                           Show the SQL and bound parameters
    status                           Show current settings

  OPA:
    plugin opa <url> <policy> [path=value ...]   Enable policy filtering via an OPA server
    opa status | opa off             Show or disable the OPA configuration
    opa url <url> | opa policy <p>   Change the server or policy path
    opa input <path> [value]         Set an input value (no value removes it)
    opa inputs [table]               Discover the inputs the policy reads
    opa explain <table> [verbose]    Show how the policy translates to SQL
    opa conditions                   Show the conditions injected per table

  Database:
    connect [dsn]                    Connect (defaults to DATABASE_URL)
    disconnect                       Close the connection
    exec                             Run the statement
    tables                           List tables

    help                             Show this help
    exit | quit                      Leave the REPL`)
}
