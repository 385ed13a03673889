package main

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/bawdo/crudsql/internal/config"
	"github.com/bawdo/crudsql/internal/logging"
	"github.com/bawdo/crudsql/internal/testutil"
	"github.com/bawdo/crudsql/managers"
)

func newTestSession(engine string) *Session {
	sess := NewSession(config.Config{Engine: engine, Placeholder: "none", Quote: "auto"}, nil, logging.Nop())
	sess.out = io.Discard
	return sess
}

// execSQL executes commands then returns the GenerateSQL output.
func execSQL(t *testing.T, engine string, commands ...string) string {
	t.Helper()
	sess := newTestSession(engine)
	for _, cmd := range commands {
		if err := sess.Execute(cmd); err != nil {
			t.Fatalf("command %q failed: %v", cmd, err)
		}
	}
	sql, err := sess.GenerateSQL()
	if err != nil {
		t.Fatalf("GenerateSQL failed: %v", err)
	}
	return sql
}

// execOutput executes commands and returns everything the session printed.
func execOutput(t *testing.T, engine string, commands ...string) string {
	t.Helper()
	sess := newTestSession(engine)
	var buf bytes.Buffer
	sess.out = &buf
	for _, cmd := range commands {
		if err := sess.Execute(cmd); err != nil {
			t.Fatalf("command %q failed: %v", cmd, err)
		}
	}
	return buf.String()
}

// --- SELECT ---

func TestSessionSelectDefault(t *testing.T) {
	t.Parallel()
	testutil.AssertEqual(t, execSQL(t, "mysql", "table users"), "SELECT * FROM users")
}

func TestSessionSelectColumns(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "mysql", "table users", "select id, name, COUNT(a, b)")
	testutil.AssertEqual(t, got, "SELECT id,name,COUNT(a, b) FROM users")
}

func TestSessionSelectBareResetsColumns(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "mysql", "table users", "select id", "select")
	testutil.AssertEqual(t, got, "SELECT * FROM users")
}

func TestSessionWhere(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "mysql",
		"table users",
		"where name = 'bob'",
		"where age > 18",
		"where deleted_at is null",
		"where raw score BETWEEN 1 AND 5",
	)
	want := "SELECT * FROM users WHERE name = 'bob' AND `age` > '18' AND `deleted_at` IS NULL AND score BETWEEN 1 AND 5"
	testutil.AssertEqual(t, got, want)
}

func TestSessionWhereOr(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "postgres", "table users", "where role = 'admin'", "where role = 'owner'", "or")
	testutil.AssertEqual(t, got, "SELECT * FROM users WHERE role = 'admin' OR role = 'owner'")

	got = execSQL(t, "postgres", "table users", "where role = 'admin'", "where role = 'owner'", "or", "and")
	testutil.AssertEqual(t, got, "SELECT * FROM users WHERE role = 'admin' AND role = 'owner'")
}

func TestSessionJoin(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "mysql",
		"table orders",
		"select id, total",
		"left join customers as c on c.id = orders.customer_id",
		"where total > 100",
	)
	want := "SELECT id,total FROM orders LEFT JOIN customers AS c ON (c.id = orders.customer_id) WHERE `total` > '100'"
	testutil.AssertEqual(t, got, want)
}

func TestSessionJoinOnAppends(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "postgres",
		"table posts",
		"join users as u on u.id = posts.user_id",
		"on u.active = 1",
	)
	testutil.AssertEqual(t, got, "SELECT * FROM posts JOIN users AS u ON (u.id = posts.user_id AND u.active = 1)")
}

func TestSessionJoinKinds(t *testing.T) {
	t.Parallel()
	tests := []struct {
		cmd  string
		want string
	}{
		{"join b", "SELECT * FROM a JOIN b"},
		{"inner join b", "SELECT * FROM a INNER JOIN b"},
		{"right join b", "SELECT * FROM a RIGHT JOIN b"},
		{"left join b", "SELECT * FROM a LEFT JOIN b"},
	}
	for _, tt := range tests {
		testutil.AssertEqual(t, execSQL(t, "mysql", "table a", tt.cmd), tt.want)
	}
}

func TestSessionIndexHintMySQLOnly(t *testing.T) {
	t.Parallel()
	cmds := []string{"table users", "join orders as o", "hint o use idx_user, idx_status"}
	testutil.AssertEqual(t, execSQL(t, "mysql", cmds...),
		"SELECT * FROM users JOIN orders AS o USE INDEX (idx_user, idx_status)")
	testutil.AssertEqual(t, execSQL(t, "postgres", cmds...),
		"SELECT * FROM users JOIN orders AS o")
}

func TestSessionHintErrors(t *testing.T) {
	t.Parallel()
	sess := newTestSession("mysql")
	_ = sess.Execute("table users")
	if err := sess.Execute("hint o use idx"); err == nil {
		t.Error("expected error without a join")
	}
	_ = sess.Execute("join orders as o")
	for _, cmd := range []string{"hint o", "hint o prefer idx", "hint o use for nothing idx"} {
		if err := sess.Execute(cmd); err == nil {
			t.Errorf("%q: expected error", cmd)
		}
	}
}

func TestSessionOrderLimitOffset(t *testing.T) {
	t.Parallel()
	cmds := []string{"table orders", "order created_at desc, id", "limit 10", "offset 20"}
	testutil.AssertEqual(t, execSQL(t, "mysql", cmds...),
		"SELECT * FROM orders ORDER BY created_at DESC,id ASC LIMIT 20 , 10")
	testutil.AssertEqual(t, execSQL(t, "postgres", cmds...),
		"SELECT * FROM orders ORDER BY created_at DESC,id ASC LIMIT 10 OFFSET 20")
}

func TestSessionOffsetWithoutLimitDropped(t *testing.T) {
	t.Parallel()
	testutil.AssertEqual(t, execSQL(t, "postgres", "table orders", "offset 5"), "SELECT * FROM orders")
	out := execOutput(t, "postgres", "table orders", "offset 5")
	if !strings.Contains(out, "only rendered together with a limit") {
		t.Errorf("expected a note about offset, got %q", out)
	}
}

func TestSessionLimitRejectsNegative(t *testing.T) {
	t.Parallel()
	sess := newTestSession("mysql")
	for _, cmd := range []string{"limit -1", "limit ten", "offset -2"} {
		if err := sess.Execute(cmd); err == nil {
			t.Errorf("%q: expected error", cmd)
		}
	}
}

// --- INSERT / UPDATE / DELETE ---

func TestSessionInsert(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "mysql", "table users", "insert name = 'bob', age = 30")
	testutil.AssertEqual(t, got, "INSERT INTO users (name,age) VALUES ('bob','30')")
}

func TestSessionInsertReturning(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "postgres", "table users", "insert name = 'bob'", "returning id")
	testutil.AssertEqual(t, got, "INSERT INTO users (name) VALUES ('bob') RETURNING id")
}

func TestSessionInsertNamedPlaceholders(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "sqlite", "quote off", "placeholder named", "table t", "insert foo, bar")
	testutil.AssertEqual(t, got, "INSERT INTO t (foo,bar) VALUES (:foo,:bar)")
}

func TestSessionUpdate(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "postgres",
		"placeholder numbered",
		"table users",
		"update name = 'bob', visits = visits + 1",
		"where id = 7",
	)
	testutil.AssertEqual(t, got, "UPDATE users SET name = $1, visits = visits + 1 WHERE id = $2")
}

func TestSessionWhereInAndBetween(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "postgres",
		"placeholder numbered",
		"table users",
		"where role in ('admin', 'owner')",
		"where age between 18 and 65",
	)
	testutil.AssertEqual(t, got, `SELECT * FROM users WHERE "role" IN ($1, $2) AND "age" BETWEEN $3 AND $4`)
}

func TestSessionDelete(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "mysql", "table sessions", "delete", "where id = 3", "limit 1")
	testutil.AssertEqual(t, got, "DELETE FROM sessions WHERE id = '3' LIMIT 1")
}

func TestSessionDeleteIgnoresJoins(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "mysql", "table sessions", "join users on users.id = sessions.user_id", "delete")
	testutil.AssertEqual(t, got, "DELETE FROM sessions")
}

func TestSessionModeSwitchKeepsConditions(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "mysql", "table users", "where id = 1", "update name = 'bob'", "select name")
	testutil.AssertEqual(t, got, "SELECT name FROM users WHERE id = '1'")
}

// --- Rendering settings ---

func TestSessionDialectSwitchIsRetroactive(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "mysql", "table users", "where name = 'O''Brien'", "dialect postgres")
	testutil.AssertEqual(t, got, "SELECT * FROM users WHERE name = 'O''Brien'")

	got = execSQL(t, "postgres", "table users", "where name = 'O''Brien'", "dialect mysql")
	testutil.AssertEqual(t, got, `SELECT * FROM users WHERE name = 'O\'Brien'`)
}

func TestSessionSQLiteQuotesByDefault(t *testing.T) {
	t.Parallel()
	testutil.AssertEqual(t, execSQL(t, "sqlite", "table users", "where name = 'bob'"),
		`SELECT * FROM "users" WHERE "name" = 'bob'`)
	testutil.AssertEqual(t, execSQL(t, "sqlite", "quote off", "table users"),
		"SELECT * FROM users")
}

func TestSessionQuoteOn(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "mysql", "quote on", "table users", "where name = 'bob'")
	testutil.AssertEqual(t, got, "SELECT * FROM `users` WHERE `name` = 'bob'")
}

func TestSessionPlaceholderPositional(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "mysql", "placeholder positional", "table users", "where name = 'bob'")
	testutil.AssertEqual(t, got, "SELECT * FROM users WHERE name = ?")
}

func TestSessionPlaceholderInvalid(t *testing.T) {
	t.Parallel()
	sess := newTestSession("mysql")
	if err := sess.Execute("placeholder dollar"); err == nil {
		t.Error("expected error for unknown placeholder mode")
	}
}

func TestSessionParamsOutput(t *testing.T) {
	t.Parallel()
	out := execOutput(t, "mysql", "placeholder named", "table users", "where name = 'bob'", "params")
	if !strings.Contains(out, "SELECT * FROM users WHERE name = :name;") {
		t.Errorf("missing SQL in output: %q", out)
	}
	if !strings.Contains(out, `1. name = "bob"`) {
		t.Errorf("missing parameter in output: %q", out)
	}
}

func TestSessionSQLOutput(t *testing.T) {
	t.Parallel()
	out := execOutput(t, "mysql", "table users", "sql")
	testutil.AssertEqual(t, out, "  Table: users\n  SELECT * FROM users;\n")
}

func TestSessionReset(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "mysql", "table users", "where id = 1", "delete", "reset")
	testutil.AssertEqual(t, got, "SELECT * FROM users")
}

// --- Errors ---

func TestSessionNoTable(t *testing.T) {
	t.Parallel()
	sess := newTestSession("mysql")
	_, err := sess.GenerateSQL()
	if !errors.Is(err, errNoTable) {
		t.Errorf("expected errNoTable, got %v", err)
	}
}

func TestSessionUnknownCommand(t *testing.T) {
	t.Parallel()
	sess := newTestSession("mysql")
	err := sess.Execute("frobnicate now")
	if err == nil || !strings.Contains(err.Error(), "unknown command: frobnicate") {
		t.Errorf("expected unknown command error, got %v", err)
	}
}

func TestSessionUnknownDialectFallsBack(t *testing.T) {
	t.Parallel()
	sess := newTestSession("oracle")
	testutil.AssertEqual(t, string(sess.engine()), "mysql")
	if err := sess.Execute("dialect oracle"); err == nil {
		t.Error("expected error for unknown dialect")
	}
}

func TestSessionCommandsAreCaseInsensitive(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "mysql", "TABLE users", "WHERE id = 1")
	testutil.AssertEqual(t, got, "SELECT * FROM users WHERE id = '1'")
}

func TestSessionOnWithoutJoin(t *testing.T) {
	t.Parallel()
	sess := newTestSession("mysql")
	if err := sess.Execute("on a.id = b.id"); err == nil {
		t.Error("expected error without a join")
	}
}

func TestSessionExecRequiresConnection(t *testing.T) {
	t.Parallel()
	sess := newTestSession("mysql")
	_ = sess.Execute("table users")
	for _, cmd := range []string{"exec", "tables", "disconnect"} {
		if err := sess.Execute(cmd); err == nil {
			t.Errorf("%q: expected error when disconnected", cmd)
		}
	}
}

func TestSessionStatus(t *testing.T) {
	t.Parallel()
	out := execOutput(t, "postgres", "table users", "delete", "status")
	for _, want := range []string{"Dialect: postgresql", "Table: users", "Mode: DELETE", "Placeholders: none"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q: %q", want, out)
		}
	}
}

func TestSessionManagerMode(t *testing.T) {
	t.Parallel()
	sess := newTestSession("mysql")
	_ = sess.Execute("table users")
	_ = sess.Execute("update name = 'x'")
	m, err := sess.Manager()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, m.Mode(), managers.ModeUpdate)
}

// --- Plugins ---

func TestPluginSoftdeleteDefault(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "mysql", "table users", "plugin softdelete")
	testutil.AssertEqual(t, got, "SELECT * FROM users WHERE users.deleted_at IS NULL")
}

func TestPluginSoftdeleteCustomColumn(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "mysql", "table users", "where id = 1", "plugin softdelete removed_at")
	testutil.AssertEqual(t, got, "SELECT * FROM users WHERE id = '1' AND users.removed_at IS NULL")
}

func TestPluginSoftdeleteTables(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "mysql",
		"table users",
		"join posts as p on p.user_id = users.id",
		"plugin softdelete removed_at on posts",
	)
	testutil.AssertEqual(t, got, "SELECT * FROM users JOIN posts AS p ON (p.user_id = users.id) WHERE p.removed_at IS NULL")
}

func TestPluginSoftdeletePerTable(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "mysql",
		"table users",
		"join posts on posts.user_id = users.id",
		"plugin softdelete users.deleted_at, posts.gone_at",
	)
	testutil.AssertEqual(t, got, "SELECT * FROM users JOIN posts ON (posts.user_id = users.id) WHERE users.deleted_at IS NULL AND posts.gone_at IS NULL")
}

func TestPluginSoftdeleteSkipsInsertAndDelete(t *testing.T) {
	t.Parallel()
	testutil.AssertEqual(t, execSQL(t, "mysql", "table users", "plugin softdelete", "delete"),
		"DELETE FROM users")
	testutil.AssertEqual(t, execSQL(t, "mysql", "table users", "plugin softdelete", "insert name = 'x'"),
		"INSERT INTO users (name) VALUES ('x')")
}

func TestPluginSoftdeleteUpdate(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "mysql", "table users", "plugin softdelete", "update name = 'x'", "where id = 1")
	testutil.AssertEqual(t, got, "UPDATE users SET name = 'x' WHERE id = '1' AND users.deleted_at IS NULL")
}

func TestPluginSoftdeleteInvalidPair(t *testing.T) {
	t.Parallel()
	sess := newTestSession("mysql")
	if err := sess.Execute("plugin softdelete users."); err == nil {
		t.Error("expected error for incomplete pair")
	}
}

func TestPluginOff(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "mysql", "table users", "plugin softdelete", "plugin off softdelete")
	testutil.AssertEqual(t, got, "SELECT * FROM users")

	got = execSQL(t, "mysql", "table users", "plugin softdelete", "plugin off")
	testutil.AssertEqual(t, got, "SELECT * FROM users")

	sess := newTestSession("mysql")
	if err := sess.Execute("plugin off softdelete"); err == nil {
		t.Error("expected error disabling a plugin that is not enabled")
	}
}

func TestPluginUnknown(t *testing.T) {
	t.Parallel()
	sess := newTestSession("mysql")
	if err := sess.Execute("plugin audit"); err == nil {
		t.Error("expected error for unknown plugin")
	}
}

func TestPluginsListing(t *testing.T) {
	t.Parallel()
	out := execOutput(t, "mysql", "plugins")
	testutil.AssertEqual(t, out, "  No plugins enabled\n")

	out = execOutput(t, "mysql", "plugin softdelete removed_at", "plugins")
	if !strings.Contains(out, "softdelete (column: removed_at)") {
		t.Errorf("expected softdelete status, got %q", out)
	}
}

func TestPluginRegistryReplaceByName(t *testing.T) {
	t.Parallel()
	sess := newTestSession("mysql")
	_ = sess.Execute("plugin softdelete a")
	_ = sess.Execute("plugin softdelete b")
	testutil.AssertEqual(t, len(sess.plugins.entries), 1)
	e, ok := sess.plugins.get("softdelete")
	if !ok {
		t.Fatal("softdelete not registered")
	}
	testutil.AssertEqual(t, e.status(), "column: b")
}
