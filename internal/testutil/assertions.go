package testutil

import (
	"reflect"
	"testing"

	"github.com/bawdo/crudsql/dialect"
	"github.com/bawdo/crudsql/params"
)

// Renderer is anything that renders itself against a dialect.
type Renderer interface {
	ToSQL(d dialect.Dialect, args *params.List) (string, error)
}

// AssertEqual checks that got == want and reports a descriptive error if not.
func AssertEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("expected:\n  %v\ngot:\n  %v", want, got)
	}
}

// Render renders r with a fresh parameter list in the given mode and
// fails the test on error.
func Render(t *testing.T, d dialect.Dialect, mode params.Mode, r Renderer) (string, []params.Param) {
	t.Helper()
	args := params.New(mode)
	got, err := r.ToSQL(d, args)
	if err != nil {
		t.Fatalf("unexpected render error: %v", err)
	}
	return got, args.Entries()
}

// AssertSQL renders r without placeholders and compares the SQL.
func AssertSQL(t *testing.T, d dialect.Dialect, r Renderer, expected string) {
	t.Helper()
	got, _ := Render(t, d, params.None, r)
	if got != expected {
		t.Errorf("expected:\n  %s\ngot:\n  %s", expected, got)
	}
}

// AssertParams compares a parameter sequence, key and value, in order.
func AssertParams(t *testing.T, got, want []params.Param) {
	t.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected params:\n  %v\ngot:\n  %v", want, got)
	}
}

// AssertNoError fails the test if err is non-nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error but got nil")
	}
}

// AssertDeepEqual checks non-comparable values such as slices with
// reflect.DeepEqual.
func AssertDeepEqual(t *testing.T, got, want any) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected:\n  %#v\ngot:\n  %#v", want, got)
	}
}
