// Package quoting provides shared identifier quoting and string escaping.
package quoting

import "strings"

// Quote wraps s in the quote character q, doubling any q inside s.
// An empty q returns s unchanged.
func Quote(s, q string) string {
	if q == "" {
		return s
	}
	return q + strings.ReplaceAll(s, q, q+q) + q
}

// QuoteQualified quotes each dot-separated part of a qualified name
// (schema.table, alias.column). A "*" part is left bare.
func QuoteQualified(s, q string) string {
	if q == "" {
		return s
	}
	parts := strings.Split(s, ".")
	for i, p := range parts {
		if p == "*" {
			continue
		}
		parts[i] = Quote(p, q)
	}
	return strings.Join(parts, ".")
}

// DoubleQuote quotes a SQL identifier using double quotes (PostgreSQL, SQLite, ANSI SQL).
func DoubleQuote(s string) string { return Quote(s, `"`) }

// Backtick quotes a SQL identifier using backticks (MySQL).
func Backtick(s string) string { return Quote(s, "`") }

// AddSlashes prefixes single quotes, double quotes, backslashes and NUL
// bytes with a backslash. This is the MySQL default escaper.
func AddSlashes(s string) string {
	if !strings.ContainsAny(s, "'\"\\\x00") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\'', '"', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case 0:
			sb.WriteString(`\0`)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// DoubleSingleQuotes escapes a string literal by doubling single quotes.
// Backslashes are left alone, matching standard_conforming_strings.
func DoubleSingleQuotes(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// EscapeLikePattern escapes LIKE wildcard characters (%, _) so they are
// matched literally, using backslash as the escape character.
func EscapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}
