package main

import (
	"sort"
	"strings"
)

// completionContext describes what kind of completion is appropriate.
type completionContext int

const (
	contextCommand     completionContext = iota // start of line or partial command
	contextTableName                            // after table/join
	contextColumnRef                            // after select/where/insert/update
	contextEngine                               // after dialect
	contextPlaceholder                          // after placeholder
	contextToggle                               // after quote/trim
	contextPlugin                               // after plugin
	contextPluginOff                            // after plugin off
	contextOrderDir                             // after a column in order
	contextOperator                             // after a column in a condition
)

var engineNames = []string{"mysql", "postgres", "sqlite"}
var placeholderModes = []string{"named", "none", "numbered", "positional"}
var toggles = []string{"auto", "off", "on"}
var orderDirs = []string{"asc", "desc"}
var operators = []string{"!=", "<", "<=", "<>", "=", ">", ">=", "is", "like"}

var functionNames = []string{
	"AVG(", "COALESCE(", "COUNT(", "COUNT(DISTINCT ", "IFNULL(", "LOWER(",
	"MAX(", "MIN(", "NOW()", "SUM(", "UPPER(",
}

// replCompleter implements readline's AutoCompleter interface.
type replCompleter struct {
	sess *Session
}

// Do returns completion candidates for the current line/cursor position.
// length is the number of runes before pos that form the prefix being
// completed; newLine holds the suffix to append for each candidate.
func (c *replCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	lineStr := string(line[:pos])
	ctx, prefix := c.parseContext(lineStr)

	var candidates []string
	switch ctx {
	case contextCommand:
		candidates = filterPrefix(c.sess.commandNames(), prefix)
	case contextTableName:
		candidates = c.completeTableNames(prefix)
	case contextColumnRef:
		candidates = c.completeColumnRef(prefix)
	case contextEngine:
		candidates = filterPrefix(engineNames, prefix)
	case contextPlaceholder:
		candidates = filterPrefix(placeholderModes, prefix)
	case contextToggle:
		candidates = filterPrefix(toggles, prefix)
	case contextPlugin:
		candidates = filterPrefix(append([]string{"off"}, c.sess.pluginNames()...), prefix)
	case contextPluginOff:
		candidates = filterPrefix(c.sess.plugins.names(), prefix)
	case contextOrderDir:
		candidates = filterPrefix(orderDirs, prefix)
	case contextOperator:
		candidates = filterPrefix(operators, prefix)
	}

	for _, cand := range candidates {
		newLine = append(newLine, []rune(cand[len(prefix):]+" "))
	}
	length = len([]rune(prefix))
	return
}

// parseContext determines the completion context and the prefix being
// typed from the line up to the cursor.
func (c *replCompleter) parseContext(line string) (completionContext, string) {
	lower := strings.ToLower(line)
	for _, cmd := range c.sess.commands {
		if !strings.HasSuffix(cmd.prefix, " ") || cmd.completer == nil {
			continue
		}
		if strings.HasPrefix(lower, cmd.prefix) {
			return cmd.completer(line[len(cmd.prefix):])
		}
	}
	return contextCommand, strings.TrimSpace(line)
}

// completeTableNames returns the current table and database tables
// matching prefix.
func (c *replCompleter) completeTableNames(prefix string) []string {
	var names []string
	if c.sess.stmt.table != "" {
		names = append(names, c.sess.stmt.table)
	}
	for _, j := range c.sess.stmt.joins {
		names = append(names, j.table)
	}
	names = append(names, c.sess.schemaTables()...)
	names = dedup(names)
	sort.Strings(names)
	return filterPrefix(names, prefix)
}

// completeColumnRef completes "table.column" after a dot, and plain
// columns of the current table, table names and functions otherwise.
func (c *replCompleter) completeColumnRef(prefix string) []string {
	if table, _, ok := strings.Cut(prefix, "."); ok {
		candidates := []string{table + ".*"}
		for _, col := range c.sess.schemaColumns(table) {
			candidates = append(candidates, table+"."+col)
		}
		return filterPrefix(candidates, prefix)
	}

	var candidates []string
	if c.sess.stmt.table != "" {
		candidates = append(candidates, c.sess.schemaColumns(c.sess.stmt.table)...)
	}
	candidates = append(candidates, c.completeTableNames("")...)
	candidates = dedup(candidates)
	candidates = filterPrefix(candidates, prefix)
	return append(candidates, filterPrefix(functionNames, prefix)...)
}

func isOperator(tok string) bool {
	for _, op := range operators {
		if strings.EqualFold(tok, op) {
			return true
		}
	}
	return false
}

// filterPrefix returns items that start with prefix (case-insensitive).
func filterPrefix(items []string, prefix string) []string {
	if prefix == "" {
		result := make([]string, len(items))
		copy(result, items)
		return result
	}
	lowerPrefix := strings.ToLower(prefix)
	var result []string
	for _, item := range items {
		if strings.HasPrefix(strings.ToLower(item), lowerPrefix) {
			result = append(result, item)
		}
	}
	return result
}

// dedup removes duplicate strings, keeping first occurrences.
func dedup(items []string) []string {
	seen := make(map[string]bool, len(items))
	var result []string
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}

// lastToken returns the text after the last space, tab or comma.
func lastToken(s string) string {
	if i := strings.LastIndexAny(s, " ,\t"); i >= 0 {
		return s[i+1:]
	}
	return s
}
