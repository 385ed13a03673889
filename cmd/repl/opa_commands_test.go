package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/bawdo/crudsql/internal/config"
	"github.com/bawdo/crudsql/internal/logging"
	"github.com/bawdo/crudsql/internal/testutil"
	"github.com/bawdo/crudsql/plugins/opa"
)

// opaServer answers compile requests with a tenant_id residual for the
// table named in the unknowns, and records the last request input.
type opaServer struct {
	*httptest.Server
	mu        sync.Mutex
	lastInput map[string]any
}

func newOPAServer(t *testing.T) *opaServer {
	t.Helper()
	o := &opaServer{}
	o.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input    map[string]any `json:"input"`
			Unknowns []string       `json:"unknowns"`
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &req)
		o.mu.Lock()
		o.lastInput = req.Input
		o.mu.Unlock()

		unknown := req.Unknowns[0]
		switch {
		case unknown == "input":
			_, _ = w.Write([]byte(`{"result": {"queries": [[{"index": 0, "terms": [
				{"type": "ref", "value": [{"type": "var", "value": "eq"}]},
				{"type": "ref", "value": [{"type": "var", "value": "input"}, {"type": "string", "value": "subject"}, {"type": "string", "value": "tenant"}]},
				{"type": "number", "value": 1}
			]}]]}}`))
		case unknown == "data.secrets":
			_, _ = w.Write([]byte(`{"result": {}}`))
		case unknown == "data.public":
			_, _ = w.Write([]byte(`{"result": {"queries": [[]]}}`))
		default:
			table := strings.TrimPrefix(unknown, "data.")
			_, _ = w.Write([]byte(`{"result": {"queries": [[{"index": 0, "terms": [
				{"type": "ref", "value": [{"type": "var", "value": "eq"}]},
				{"type": "ref", "value": [
					{"type": "var", "value": "data"}, {"type": "string", "value": "` + table + `"},
					{"type": "var", "value": "$0"}, {"type": "string", "value": "tenant_id"}
				]},
				{"type": "number", "value": 42}
			]}]]}}`))
		}
	}))
	t.Cleanup(o.Close)
	return o
}

func (o *opaServer) input() map[string]any {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastInput
}

func runAll(t *testing.T, sess *Session, commands ...string) {
	t.Helper()
	for _, cmd := range commands {
		if err := sess.Execute(cmd); err != nil {
			t.Fatalf("command %q failed: %v", cmd, err)
		}
	}
}

func TestPluginOPAFiltersSelect(t *testing.T) {
	t.Parallel()
	srv := newOPAServer(t)
	sql := execSQL(t, "postgres", "table users", "plugin opa "+srv.URL+" authz.allow")
	testutil.AssertEqual(t, sql, `SELECT * FROM users WHERE "users"."tenant_id" = '42'`)
}

func TestPluginOPAJoinsAndSoftdelete(t *testing.T) {
	t.Parallel()
	srv := newOPAServer(t)
	sql := execSQL(t, "mysql",
		"table users",
		"join orders as o",
		"on o.user_id = users.id",
		"plugin softdelete",
		"plugin opa "+srv.URL+" authz.allow",
	)
	testutil.AssertEqual(t, sql,
		"SELECT * FROM users JOIN orders AS o ON (o.user_id = users.id)"+
			" WHERE users.deleted_at IS NULL AND o.deleted_at IS NULL"+
			" AND `users`.`tenant_id` = '42' AND `o`.`tenant_id` = '42'")
}

func TestPluginOPADeny(t *testing.T) {
	t.Parallel()
	srv := newOPAServer(t)
	sess := newTestSession("postgres")
	runAll(t, sess, "table secrets", "plugin opa "+srv.URL+" authz.allow")
	_, err := sess.GenerateSQL()
	if !errors.Is(err, opa.ErrAccessDenied) {
		t.Errorf("expected ErrAccessDenied, got %v", err)
	}
}

func TestPluginOPAInputsSentToServer(t *testing.T) {
	t.Parallel()
	srv := newOPAServer(t)
	sess := newTestSession("postgres")
	runAll(t, sess,
		"table users",
		"plugin opa "+srv.URL+" authz.allow subject.tenant=42 subject.role=admin",
		"opa input subject.active true",
		"opa input subject.role",
	)
	_, err := sess.GenerateSQL()
	testutil.AssertNoError(t, err)

	subject, ok := srv.input()["subject"].(map[string]any)
	if !ok {
		t.Fatalf("expected subject object, got %#v", srv.input())
	}
	if subject["tenant"] != float64(42) || subject["active"] != true {
		t.Errorf("unexpected subject %#v", subject)
	}
	if _, ok := subject["role"]; ok {
		t.Error("expected role to be removed")
	}
}

func TestPluginOPAUsage(t *testing.T) {
	t.Parallel()
	sess := newTestSession("mysql")
	testutil.AssertError(t, sess.Execute("plugin opa http://localhost:8181"))
	testutil.AssertError(t, sess.Execute("plugin opa http://localhost:8181 authz.allow novalue"))
}

func TestOPACommandsRequirePlugin(t *testing.T) {
	t.Parallel()
	sess := newTestSession("mysql")
	for _, cmd := range []string{
		"opa off", "opa url http://x", "opa policy p", "opa input a 1",
		"opa inputs", "opa explain users", "opa conditions",
	} {
		if err := sess.Execute(cmd); !errors.Is(err, errOPADisabled) {
			t.Errorf("%q: expected errOPADisabled, got %v", cmd, err)
		}
	}
}

func TestOPAStatus(t *testing.T) {
	t.Parallel()
	out := execOutput(t, "mysql",
		"opa status",
		"plugin opa http://opa:8181 authz.allow subject.tenant=7",
		"opa policy authz.read",
		"opa status",
	)
	testutil.AssertEqual(t, out, "  OPA: off\n"+
		"  OPA enabled (policy: data.authz.allow)\n"+
		"  OPA policy set to data.authz.read\n"+
		"  OPA: on\n"+
		"    Server: http://opa:8181\n"+
		"    Policy: data.authz.read\n"+
		"    Inputs:\n"+
		"      subject:\n"+
		"        tenant: 7\n")
}

func TestOPAOffAndPluginOff(t *testing.T) {
	t.Parallel()
	sess := newTestSession("mysql")
	runAll(t, sess, "table users", "plugin opa http://opa authz.allow", "opa off")
	testutil.AssertEqual(t, len(sess.plugins.entries), 0)
	if sess.opa != nil {
		t.Error("expected OPA settings cleared")
	}

	runAll(t, sess, "plugin opa http://opa authz.allow", "plugin off opa")
	if sess.opa != nil {
		t.Error("expected plugin off to clear OPA settings")
	}
	sql, err := sess.GenerateSQL()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, sql, "SELECT * FROM users")
}

func TestOPAURLChangeAppliesToNextRender(t *testing.T) {
	t.Parallel()
	srv := newOPAServer(t)
	sess := newTestSession("postgres")
	runAll(t, sess, "table users", "plugin opa http://127.0.0.1:1 authz.allow")
	_, err := sess.GenerateSQL()
	testutil.AssertError(t, err)

	runAll(t, sess, "opa url "+srv.URL)
	sql, err := sess.GenerateSQL()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, sql, `SELECT * FROM users WHERE "users"."tenant_id" = '42'`)
}

func TestOPAInputsDiscovery(t *testing.T) {
	t.Parallel()
	srv := newOPAServer(t)
	out := execOutput(t, "mysql",
		"plugin opa "+srv.URL+" authz.allow",
		"opa inputs users",
	)
	if !strings.Contains(out, "  Policy requires 1 input(s):\n    subject.tenant (unset)\n") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestOPAExplain(t *testing.T) {
	t.Parallel()
	srv := newOPAServer(t)
	out := execOutput(t, "postgres",
		"plugin opa "+srv.URL+" authz.allow",
		"opa explain users verbose",
		"opa explain secrets",
		"opa explain public",
	)
	for _, want := range []string{
		`  OPA explain for table "users":`,
		`      [1] eq(data.users.tenant_id, 42) -> "users"."tenant_id" = '42'`,
		"    1 query(ies), 1 expression(s)",
		`      "users"."tenant_id" = '42'`,
		"    Access denied (no matching rules)",
		"    Unconditional allow (no conditions)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestOPAConditions(t *testing.T) {
	t.Parallel()
	srv := newOPAServer(t)
	out := execOutput(t, "postgres",
		"table users",
		"left join secrets as s",
		"plugin opa "+srv.URL+" authz.allow",
		"opa conditions",
	)
	if !strings.Contains(out, `    users: "users"."tenant_id" = '42'`) {
		t.Errorf("missing users condition:\n%s", out)
	}
	if !strings.Contains(out, "    secrets: opa: access denied to secrets") {
		t.Errorf("missing secrets denial:\n%s", out)
	}
}

func TestOPAFromConfig(t *testing.T) {
	t.Parallel()
	srv := newOPAServer(t)
	sess := NewSession(config.Config{
		Engine: "postgres", Placeholder: "none",
		OPAURL: srv.URL, OPAPolicy: "authz.allow",
	}, nil, logging.Nop())
	sess.out = io.Discard
	runAll(t, sess, "table users")
	sql, err := sess.GenerateSQL()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, sql, `SELECT * FROM users WHERE "users"."tenant_id" = '42'`)
}

func TestParseOPAValue(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want any
	}{
		{"42", 42},
		{"1.5", 1.5},
		{"true", true},
		{"FALSE", false},
		{"null", nil},
		{"admin", "admin"},
		{"'42'", "42"},
		{`"a b"`, "a b"},
	}
	for _, tc := range cases {
		if got := parseOPAValue(tc.in); got != tc.want {
			t.Errorf("parseOPAValue(%q) = %#v, want %#v", tc.in, got, tc.want)
		}
	}
}

func TestNestedValues(t *testing.T) {
	t.Parallel()
	m := map[string]any{}
	setNestedValue(m, "subject.org.id", 3)
	setNestedValue(m, "flag", true)
	testutil.AssertEqual(t, getNestedValue(m, "subject.org.id"), any(3))
	testutil.AssertEqual(t, getNestedValue(m, "flag"), any(true))
	testutil.AssertEqual(t, getNestedValue(m, "subject.missing.x"), any(nil))

	deleteNestedValue(m, "subject.org.id")
	testutil.AssertEqual(t, getNestedValue(m, "subject.org.id"), any(nil))
	deleteNestedValue(m, "nope.deeper")
	testutil.AssertEqual(t, len(m), 2)
}
