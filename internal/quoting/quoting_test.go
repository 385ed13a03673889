package quoting

import "testing"

func TestAddSlashes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "hello", "hello"},
		{"single quote", "it's", `it\'s`},
		{"double quote", `say "hi"`, `say \"hi\"`},
		{"backslash", `a\b`, `a\\b`},
		{"null byte", "a\x00b", `a\0b`},
		{"unicode with quote", "café's", "café\\'s"},
		{"injection attempt", "'; DROP TABLE users; --", `\'; DROP TABLE users; --`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := AddSlashes(tt.input); got != tt.want {
				t.Errorf("AddSlashes(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDoubleSingleQuotes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"no quotes", "hello", "hello"},
		{"single quote", "it's", "it''s"},
		{"backslash untouched", `a\b`, `a\b`},
		{"only quote", "'", "''"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DoubleSingleQuotes(tt.input); got != tt.want {
				t.Errorf("DoubleSingleQuotes(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestQuote(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		q     string
		want  string
	}{
		{"double", "users", `"`, `"users"`},
		{"backtick", "users", "`", "`users`"},
		{"no quote char", "users", "", "users"},
		{"embedded double", `us"ers`, `"`, `"us""ers"`},
		{"embedded backtick", "us`ers", "`", "`us``ers`"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Quote(tt.input, tt.q); got != tt.want {
				t.Errorf("Quote(%q, %q) = %q, want %q", tt.input, tt.q, got, tt.want)
			}
		})
	}
}

func TestQuoteQualified(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input string
		want  string
	}{
		{"id", `"id"`},
		{"o.id", `"o"."id"`},
		{"public.users.name", `"public"."users"."name"`},
		{"u.*", `"u".*`},
		{"*", `*`},
	}
	for _, tt := range tests {
		if got := QuoteQualified(tt.input, `"`); got != tt.want {
			t.Errorf("QuoteQualified(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDoubleQuoteAndBacktick(t *testing.T) {
	t.Parallel()
	if got := DoubleQuote(`users"."passwords`); got != `"users"".""passwords"` {
		t.Errorf("DoubleQuote = %q", got)
	}
	if got := Backtick("order"); got != "`order`" {
		t.Errorf("Backtick = %q", got)
	}
}

func TestEscapeLikePattern(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input string
		want  string
	}{
		{"plain", "plain"},
		{"100%", `100\%`},
		{"a_b", `a\_b`},
		{`c:\tmp`, `c:\\tmp`},
		{`%_\`, `\%\_\\`},
	}
	for _, tt := range tests {
		if got := EscapeLikePattern(tt.input); got != tt.want {
			t.Errorf("EscapeLikePattern(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
