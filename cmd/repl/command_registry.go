package main

import (
	"sort"
	"strings"
)

// commandEntry maps a REPL prefix to its handler and optional tab-completer.
type commandEntry struct {
	prefix    string
	handler   func(args string) error
	completer func(args string) (completionContext, string) // nil = no arg completion
	hidden    bool                                          // excluded from commandNames()
}

// initCommands builds the command registry and sorts by prefix length descending.
func (s *Session) initCommands() {
	s.commands = []commandEntry{
		// --- display ---
		{prefix: "sql", handler: func(_ string) error { return s.cmdSQL() }},
		{prefix: "params", handler: func(_ string) error { return s.cmdParams() }},
		{prefix: "status", handler: func(_ string) error { s.cmdStatus(); return nil }},
		{prefix: "reset", handler: func(_ string) error { return s.cmdReset() }},
		{prefix: "help", handler: func(_ string) error { s.cmdHelp(); return nil }},

		// --- statement ---
		{prefix: "table ", handler: s.cmdTable, completer: completeTableArgs},
		{prefix: "t ", handler: s.cmdTable, completer: completeTableArgs, hidden: true},
		{prefix: "select ", handler: s.cmdSelect, completer: completeColumnArgs},
		{prefix: "select", handler: s.cmdSelect},
		{prefix: "insert ", handler: s.cmdInsert, completer: completeColumnArgs},
		{prefix: "update ", handler: s.cmdUpdate, completer: completeColumnArgs},
		{prefix: "delete", handler: func(_ string) error { return s.cmdDelete() }},
		{prefix: "where raw ", handler: s.cmdWhereRaw},
		{prefix: "where ", handler: s.cmdWhere, completer: completeColumnArgs},
		{prefix: "or", handler: func(_ string) error { s.stmt.or = true; return nil }},
		{prefix: "and", handler: func(_ string) error { s.stmt.or = false; return nil }},
		{prefix: "order ", handler: s.cmdOrder, completer: completeOrderArgs},
		{prefix: "limit ", handler: s.cmdLimit},
		{prefix: "offset ", handler: s.cmdOffset},
		{prefix: "returning ", handler: s.cmdReturning, completer: completeColumnArgs},

		// --- joins (multi-word prefixes) ---
		{prefix: "left join ", handler: func(a string) error { return s.cmdJoin(a, "left") }, completer: completeJoinArgs},
		{prefix: "right join ", handler: func(a string) error { return s.cmdJoin(a, "right") }, completer: completeJoinArgs},
		{prefix: "inner join ", handler: func(a string) error { return s.cmdJoin(a, "inner") }, completer: completeJoinArgs},
		{prefix: "join ", handler: func(a string) error { return s.cmdJoin(a, "") }, completer: completeJoinArgs},
		{prefix: "on ", handler: s.cmdOn, completer: completeColumnArgs},
		{prefix: "hint ", handler: s.cmdHint},

		// --- rendering settings ---
		{prefix: "dialect ", handler: s.cmdDialect, completer: completeEngineArgs},
		{prefix: "engine ", handler: s.cmdDialect, completer: completeEngineArgs, hidden: true},
		{prefix: "placeholder ", handler: s.cmdPlaceholder, completer: completePlaceholderArgs},
		{prefix: "quote ", handler: s.cmdQuote, completer: completeToggleArgs},
		{prefix: "trim ", handler: s.cmdTrim, completer: completeToggleArgs},
		{prefix: "plugin ", handler: s.cmdPlugin, completer: completePluginArgs},
		{prefix: "plugins", handler: func(_ string) error { s.cmdPlugins(); return nil }},

		// --- OPA ---
		{prefix: "opa status", handler: func(_ string) error { s.cmdOPAStatus(); return nil }},
		{prefix: "opa off", handler: func(_ string) error { return s.cmdOPAOff() }},
		{prefix: "opa url ", handler: s.cmdOPAURL},
		{prefix: "opa policy ", handler: s.cmdOPAPolicy},
		{prefix: "opa input ", handler: s.cmdOPAInput},
		{prefix: "opa inputs ", handler: s.cmdOPAInputs, completer: completeTableArgs},
		{prefix: "opa inputs", handler: s.cmdOPAInputs},
		{prefix: "opa explain ", handler: s.cmdOPAExplain, completer: completeTableArgs},
		{prefix: "opa conditions", handler: func(_ string) error { return s.cmdOPAConditions() }},

		// --- database connectivity ---
		{prefix: "connect ", handler: s.cmdConnect},
		{prefix: "connect", handler: s.cmdConnect},
		{prefix: "disconnect", handler: func(_ string) error { return s.cmdDisconnect() }},
		{prefix: "exec", handler: func(_ string) error { return s.cmdExec() }},
		{prefix: "run", handler: func(_ string) error { return s.cmdExec() }, hidden: true},
		{prefix: "tables", handler: func(_ string) error { return s.cmdTables() }},
	}

	// Longest prefixes match first.
	sort.SliceStable(s.commands, func(i, j int) bool {
		return len(s.commands[i].prefix) > len(s.commands[j].prefix)
	})
}

// commandNames derives the command name list from the registry for tab completion.
func (s *Session) commandNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, cmd := range s.commands {
		if cmd.hidden {
			continue
		}
		name := strings.TrimRight(cmd.prefix, " ")
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	// exit/quit are handled by the REPL loop, not Execute().
	for _, extra := range []string{"exit", "quit"} {
		if !seen[extra] {
			names = append(names, extra)
		}
	}
	sort.Strings(names)
	return names
}

// --- Shared completion helpers ---

// completeJoinArgs completes the table name, then column refs after ON.
func completeJoinArgs(args string) (completionContext, string) {
	words := strings.Fields(args)
	if len(words) == 0 {
		return contextTableName, ""
	}
	if !strings.Contains(args, " ") {
		return contextTableName, args
	}
	if strings.HasSuffix(args, " ") {
		return contextColumnRef, ""
	}
	return contextColumnRef, words[len(words)-1]
}

// completeTableArgs completes a single table name.
func completeTableArgs(args string) (completionContext, string) {
	arg := strings.TrimSpace(args)
	if strings.Contains(arg, " ") {
		return contextCommand, ""
	}
	return contextTableName, arg
}

// completeColumnArgs completes column refs (select, where, insert, update,
// returning, on).
func completeColumnArgs(args string) (completionContext, string) {
	if strings.HasSuffix(args, " ") {
		prev := strings.Fields(args)
		if len(prev) > 0 && !isOperator(prev[len(prev)-1]) && !strings.HasSuffix(prev[len(prev)-1], ",") {
			return contextOperator, ""
		}
		return contextColumnRef, ""
	}
	return contextColumnRef, lastToken(args)
}

// completeOrderArgs completes column refs, then a direction.
func completeOrderArgs(args string) (completionContext, string) {
	if strings.HasSuffix(args, " ") {
		if len(strings.Fields(args)) > 0 {
			return contextOrderDir, ""
		}
		return contextColumnRef, ""
	}
	parts := strings.Fields(args)
	last := lastToken(args)
	if len(parts) > 1 && !strings.HasSuffix(parts[len(parts)-2], ",") {
		return contextOrderDir, last
	}
	return contextColumnRef, last
}

func completeEngineArgs(args string) (completionContext, string) {
	return contextEngine, strings.TrimSpace(args)
}

func completePlaceholderArgs(args string) (completionContext, string) {
	return contextPlaceholder, strings.TrimSpace(args)
}

func completeToggleArgs(args string) (completionContext, string) {
	return contextToggle, strings.TrimSpace(args)
}

// completePluginArgs completes plugin names, or after "off" the names of
// enabled plugins.
func completePluginArgs(args string) (completionContext, string) {
	if strings.HasPrefix(strings.ToLower(args), "off ") {
		return contextPluginOff, strings.TrimSpace(args[4:])
	}
	arg := strings.TrimSpace(args)
	if !strings.Contains(arg, " ") {
		return contextPlugin, arg
	}
	return contextCommand, ""
}
