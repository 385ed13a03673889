package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bawdo/crudsql/managers"
	"github.com/bawdo/crudsql/nodes"
)

// tokenize splits input on whitespace, keeping single-quoted strings
// (with '' escapes) and comparison operators as separate tokens.
func tokenize(input string) []string {
	var tokens []string
	var cur strings.Builder
	inQuote := false

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(input); i++ {
		ch := input[i]

		if inQuote {
			cur.WriteByte(ch)
			if ch == '\'' {
				if i+1 < len(input) && input[i+1] == '\'' {
					cur.WriteByte('\'')
					i++
				} else {
					inQuote = false
					flush()
				}
			}
			continue
		}

		switch {
		case ch == '\'':
			flush()
			cur.WriteByte(ch)
			inQuote = true
		case ch == '!' && i+1 < len(input) && input[i+1] == '=':
			flush()
			tokens = append(tokens, "!=")
			i++
		case ch == '<' && i+1 < len(input) && (input[i+1] == '>' || input[i+1] == '='):
			flush()
			tokens = append(tokens, input[i:i+2])
			i++
		case ch == '>' && i+1 < len(input) && input[i+1] == '=':
			flush()
			tokens = append(tokens, ">=")
			i++
		case ch == '=' || ch == '<' || ch == '>':
			flush()
			tokens = append(tokens, string(ch))
		case ch == ' ' || ch == '\t':
			flush()
		default:
			cur.WriteByte(ch)
		}
	}
	flush()
	return tokens
}

// parseValue converts a literal token into a Go value: quoted strings,
// integers, floats, booleans and NULL.
func parseValue(token string) (any, error) {
	lower := strings.ToLower(token)
	switch lower {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null":
		return nil, nil
	}
	if strings.HasPrefix(token, "'") && strings.HasSuffix(token, "'") && len(token) >= 2 {
		inner := token[1 : len(token)-1]
		return strings.ReplaceAll(inner, "''", "'"), nil
	}
	if i, err := strconv.Atoi(token); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil {
		return f, nil
	}
	return nil, fmt.Errorf("cannot parse value: %s", token)
}

// parseOperand parses the right-hand side of a condition or assignment. A
// single literal token becomes a bound value; anything else is taken as a
// raw SQL expression.
func parseOperand(text string) any {
	text = strings.TrimSpace(text)
	if tokens := tokenize(text); len(tokens) == 1 {
		if v, err := parseValue(tokens[0]); err == nil {
			return v
		}
	}
	return nodes.Raw(text)
}

// whereKind distinguishes the condition shapes the REPL can record.
type whereKind int

const (
	wherePair whereKind = iota
	whereBare
	whereExpr
)

// whereEntry is one recorded WHERE condition.
type whereEntry struct {
	kind   whereKind
	column string
	value  any
	expr   nodes.Node
}

var comparisonOps = map[string]bool{
	"!=": true, "<>": true, "<": true, "<=": true, ">": true, ">=": true,
	"like": true,
}

var errEmptyCondition = errors.New("empty condition")

// parseCondition parses "col", "col = value", "col <op> value",
// "col is [not] null", "col like 'x%'", "col [not] in (a, b)" and
// "col between a and b".
func parseCondition(input string) (whereEntry, error) {
	input = strings.TrimSpace(input)
	tokens := tokenize(input)
	switch {
	case len(tokens) == 0:
		return whereEntry{}, errEmptyCondition
	case len(tokens) == 1:
		return whereEntry{kind: whereBare, column: tokens[0]}, nil
	}

	col, op := tokens[0], strings.ToLower(tokens[1])
	after := input[len(col):]
	rest := strings.TrimSpace(after[strings.Index(after, tokens[1])+len(tokens[1]):])

	switch {
	case op == "=":
		if rest == "" {
			return whereEntry{}, fmt.Errorf("missing value after %s =", col)
		}
		return whereEntry{kind: wherePair, column: col, value: parseOperand(rest)}, nil
	case op == "is":
		upper := strings.ToUpper(strings.Join(tokens[2:], " "))
		switch upper {
		case "NULL":
			return whereEntry{kind: whereExpr, expr: nodes.IsNull(col)}, nil
		case "NOT NULL":
			return whereEntry{kind: whereExpr, expr: nodes.NewBinary(nodes.Ident(col), "IS NOT", nodes.Raw("NULL"))}, nil
		}
		return whereEntry{}, fmt.Errorf("expected NULL or NOT NULL after IS, got %q", upper)
	case op == "in" || (op == "not" && len(tokens) > 2 && strings.EqualFold(tokens[2], "in")):
		list := rest
		if op == "not" {
			list = strings.TrimSpace(rest[len(tokens[2]):])
		}
		values, err := parseList(list)
		if err != nil {
			return whereEntry{}, err
		}
		n := &nodes.In{Expr: nodes.Ident(col), Values: values, Negate: op == "not"}
		return whereEntry{kind: whereExpr, expr: n}, nil
	case op == "between":
		low, high, ok := cutFold(rest, " and ")
		if !ok || strings.TrimSpace(low) == "" || strings.TrimSpace(high) == "" {
			return whereEntry{}, fmt.Errorf("expected 'between <low> and <high>', got %q", rest)
		}
		return whereEntry{kind: whereExpr, expr: nodes.Range(col, parseOperand(low), parseOperand(high))}, nil
	case comparisonOps[op]:
		if rest == "" {
			return whereEntry{}, fmt.Errorf("missing value after %s %s", col, tokens[1])
		}
		return whereEntry{kind: whereExpr, expr: nodes.Compare(col, strings.ToUpper(op), parseOperand(rest))}, nil
	}
	return whereEntry{}, fmt.Errorf("unsupported operator %q (use 'where raw <expr>' for anything else)", tokens[1])
}

// parseList parses "(a, b, ...)" into values.
func parseList(s string) ([]nodes.Value, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return nil, fmt.Errorf("expected a parenthesised list, got %q", s)
	}
	items := splitTopLevelCommas(s[1 : len(s)-1])
	if len(items) == 0 {
		return nil, errors.New("empty IN list")
	}
	values := make([]nodes.Value, len(items))
	for i, item := range items {
		values[i] = nodes.V(parseOperand(item))
	}
	return values, nil
}

// cutFold is strings.Cut with a case-insensitive separator.
func cutFold(s, sep string) (before, after string, found bool) {
	if i := strings.Index(strings.ToLower(s), strings.ToLower(sep)); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}
	return s, "", false
}

// parseAssignments parses "col = value, col2 = value2" or a bare column
// list "col, col2".
func parseAssignments(input string) ([]managers.Assignment, error) {
	parts := splitTopLevelCommas(input)
	out := make([]managers.Assignment, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		eq := strings.IndexByte(p, '=')
		if eq < 0 {
			if strings.ContainsAny(p, " \t") {
				return nil, fmt.Errorf("invalid column name: %q", p)
			}
			out = append(out, managers.Bare(p))
			continue
		}
		col := strings.TrimSpace(p[:eq])
		if col == "" {
			return nil, fmt.Errorf("missing column in %q", p)
		}
		out = append(out, managers.Assign(col, parseOperand(p[eq+1:])))
	}
	if len(out) == 0 {
		return nil, managers.ErrEmptyPayload
	}
	return out, nil
}

// splitTopLevelCommas splits s on commas that are outside parentheses and
// single-quoted strings.
func splitTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; {
		case ch == '\'':
			inQuote = !inQuote
		case inQuote:
		case ch == '(':
			depth++
		case ch == ')':
			depth--
		case ch == ',' && depth == 0:
			parts = append(parts, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	if last := strings.TrimSpace(s[start:]); last != "" {
		parts = append(parts, last)
	}
	return parts
}

// parseOnOff parses on/off style toggles.
func parseOnOff(arg string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", arg)
}
