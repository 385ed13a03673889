package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bawdo/crudsql/managers"
	"github.com/bawdo/crudsql/plugins"
	"github.com/bawdo/crudsql/plugins/opa"
)

var errOPADisabled = errors.New("OPA is not enabled (use 'plugin opa <url> <policy>' first)")

// opaSettings holds the OPA server configuration of a session.
type opaSettings struct {
	url       string
	policy    string
	input     map[string]any
	dataTable string // extra data unknown for input discovery
}

func (o *opaSettings) client() *opa.Client {
	return opa.NewClient(o.url, o.policy, o.input)
}

// configureOPA parses "<url> <policy> [path=value ...]" and enables the
// plugin.
func configureOPA(s *Session, args string) error {
	parts := strings.Fields(args)
	if len(parts) < 2 {
		return errors.New("usage: plugin opa <url> <policy> [input.path=value ...]")
	}
	cfg := &opaSettings{url: parts[0], policy: parts[1], input: map[string]any{}}
	for _, kv := range parts[2:] {
		path, val, ok := strings.Cut(kv, "=")
		if !ok || path == "" {
			return fmt.Errorf("invalid input %q (expected path=value)", kv)
		}
		setNestedValue(cfg.input, path, parseOPAValue(val))
	}
	s.opa = cfg
	s.registerOPA()
	s.printf("  OPA enabled (policy: %s)\n", s.opa.client().PolicyPath())
	return nil
}

// registerOPA (re)registers the plugin from the current settings. The
// factory reads s.opa on every render, so later changes to the url, policy
// or inputs take effect immediately.
func (s *Session) registerOPA() {
	s.plugins.register(pluginEntry{
		name: "opa",
		factory: func() plugins.Transformer {
			return opa.NewFromServer(s.opa.url, s.opa.policy, s.opa.input, opa.WithLogger(s.log))
		},
		status: func() string { return "policy: " + s.opa.client().PolicyPath() },
	})
}

func (s *Session) cmdOPAOff() error {
	if s.opa == nil {
		return errOPADisabled
	}
	s.plugins.deregister("opa")
	s.opa = nil
	s.printf("  OPA disabled\n")
	return nil
}

func (s *Session) cmdOPAStatus() {
	if s.opa == nil {
		s.printf("  OPA: off\n")
		return
	}
	s.printf("  OPA: on\n")
	s.printf("    Server: %s\n", s.opa.url)
	s.printf("    Policy: %s\n", s.opa.client().PolicyPath())
	if s.opa.dataTable != "" {
		s.printf("    Data table: %s\n", s.opa.dataTable)
	}
	if len(s.opa.input) == 0 {
		s.printf("    Inputs: (none)\n")
		return
	}
	s.printf("    Inputs:\n")
	s.printInputMap(s.opa.input, "      ")
}

func (s *Session) printInputMap(m map[string]any, indent string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if nested, ok := m[k].(map[string]any); ok {
			s.printf("%s%s:\n", indent, k)
			s.printInputMap(nested, indent+"  ")
			continue
		}
		s.printf("%s%s: %v\n", indent, k, m[k])
	}
}

func (s *Session) cmdOPAURL(args string) error {
	if s.opa == nil {
		return errOPADisabled
	}
	if args == "" {
		return errors.New("usage: opa url <url>")
	}
	s.opa.url = args
	s.printf("  OPA server URL set to %s\n", args)
	return nil
}

func (s *Session) cmdOPAPolicy(args string) error {
	if s.opa == nil {
		return errOPADisabled
	}
	if args == "" {
		return errors.New("usage: opa policy <path>")
	}
	s.opa.policy = args
	s.printf("  OPA policy set to %s\n", s.opa.client().PolicyPath())
	return nil
}

// cmdOPAInput sets "path value" or removes "path".
func (s *Session) cmdOPAInput(args string) error {
	if s.opa == nil {
		return errOPADisabled
	}
	path, raw, hasValue := strings.Cut(args, " ")
	if path == "" {
		return errors.New("usage: opa input <path> [value]")
	}
	if raw = strings.TrimSpace(raw); !hasValue || raw == "" {
		deleteNestedValue(s.opa.input, path)
		s.printf("  Removed input %s\n", path)
		return nil
	}
	val := parseOPAValue(raw)
	setNestedValue(s.opa.input, path, val)
	s.printf("  Set input %s = %v\n", path, val)
	return nil
}

// cmdOPAInputs lists the input paths the policy references. An optional
// table adds data.<table> as an unknown. Interactive sessions are prompted
// for a value per path.
func (s *Session) cmdOPAInputs(args string) error {
	if s.opa == nil {
		return errOPADisabled
	}
	if args != "" {
		s.opa.dataTable = args
	}
	var unknowns []string
	if s.opa.dataTable != "" {
		unknowns = append(unknowns, "data."+s.opa.dataTable)
	}
	paths, err := s.opa.client().DiscoverInputs(unknowns...)
	if err != nil {
		return fmt.Errorf("OPA: cannot reach server at %s: %w", s.opa.url, err)
	}
	if len(paths) == 0 {
		s.printf("  No inputs required by policy\n")
		return nil
	}
	s.printf("  Policy requires %d input(s):\n", len(paths))
	for _, path := range paths {
		current := getNestedValue(s.opa.input, path)
		if s.rl == nil {
			if current == nil {
				s.printf("    %s (unset)\n", path)
			} else {
				s.printf("    %s = %v\n", path, current)
			}
			continue
		}
		def := ""
		if current != nil {
			def = fmt.Sprint(current)
		}
		if val := prompt(s.rl, path, def); val != "" {
			setNestedValue(s.opa.input, path, parseOPAValue(val))
		}
	}
	return nil
}

// cmdOPAExplain shows how the policy residual for a table translates into
// SQL, optionally with the raw request, response and per-expression trace.
func (s *Session) cmdOPAExplain(args string) error {
	if s.opa == nil {
		return errOPADisabled
	}
	parts := strings.Fields(args)
	if len(parts) == 0 {
		return errors.New("usage: opa explain <table> [verbose]")
	}
	table := parts[0]
	verbose := len(parts) > 1 && strings.EqualFold(parts[1], "verbose")

	d, err := s.settings.Dialect()
	if err != nil {
		return err
	}
	res, err := s.opa.client().Explain(plugins.TableRef{Ref: table, Name: table}, d)
	if err != nil {
		return fmt.Errorf("OPA explain: %w", err)
	}

	s.printf("  OPA explain for table %q:\n", table)
	if verbose {
		s.printf("    Request:\n      %s\n", res.RequestJSON)
		s.printf("    Response:\n      %s\n", res.RawJSON)
	}
	switch {
	case res.AccessDenied:
		s.printf("    Access denied (no matching rules)\n")
		return nil
	case res.UnconditionalAllow:
		s.printf("    Unconditional allow (no conditions)\n")
		return nil
	}
	if verbose {
		s.printf("    Translation:\n")
		for i, tr := range res.Translations {
			sql := tr.SQL
			if sql == "" {
				sql = "(untranslatable)"
			}
			s.printf("      [%d] %s(data.%s.%s, %v) -> %s\n", i+1, tr.Operator, table, tr.Column, tr.Value, sql)
		}
	}
	s.printf("    %d query(ies), %d expression(s)\n", res.QueryCount, res.ExpressionCount)
	s.printf("    Conditions:\n")
	for _, c := range res.Conditions {
		s.printf("      %s\n", c)
	}
	return nil
}

// cmdOPAConditions shows the conditions the policy injects for every
// table of the current statement.
func (s *Session) cmdOPAConditions() error {
	if s.opa == nil {
		return errOPADisabled
	}
	if s.stmt.table == "" {
		return errNoTable
	}
	d, err := s.settings.Dialect()
	if err != nil {
		return err
	}
	refs := []plugins.TableRef{{Ref: s.stmt.table, Name: s.stmt.table}}
	if s.stmt.mode == managers.ModeSelect {
		for _, j := range s.stmt.joins {
			ref := j.alias
			if ref == "" {
				ref = j.table
			}
			refs = append(refs, plugins.TableRef{Ref: ref, Name: j.table})
		}
	}

	client := s.opa.client()
	s.printf("  OPA conditions:\n")
	for _, ref := range refs {
		conds, err := client.Compile(ref)
		if err != nil {
			s.printf("    %s: %v\n", ref.Name, err)
			continue
		}
		if len(conds) == 0 {
			s.printf("    %s: (unconditional allow)\n", ref.Name)
			continue
		}
		rendered := make([]string, len(conds))
		for i, c := range conds {
			if rendered[i], err = c.ToSQL(d, nil); err != nil {
				return err
			}
		}
		s.printf("    %s: %s\n", ref.Name, strings.Join(rendered, " AND "))
	}
	return nil
}

// parseOPAValue converts an input value: numbers, booleans, quoted or bare
// strings.
func parseOPAValue(s string) any {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	return s
}

func setNestedValue(m map[string]any, path string, val any) {
	parts := strings.Split(path, ".")
	current := m
	for _, p := range parts[:len(parts)-1] {
		next, ok := current[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[p] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = val
}

func deleteNestedValue(m map[string]any, path string) {
	parts := strings.Split(path, ".")
	current := m
	for _, p := range parts[:len(parts)-1] {
		next, ok := current[p].(map[string]any)
		if !ok {
			return
		}
		current = next
	}
	delete(current, parts[len(parts)-1])
}

func getNestedValue(m map[string]any, path string) any {
	parts := strings.Split(path, ".")
	current := m
	for _, p := range parts[:len(parts)-1] {
		next, ok := current[p].(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}
	return current[parts[len(parts)-1]]
}
