package softdelete

import (
	"testing"

	"github.com/bawdo/crudsql/dialect"
	"github.com/bawdo/crudsql/managers"
	"github.com/bawdo/crudsql/plugins"
)

func build(t *testing.T, m *managers.CRUDManager) string {
	t.Helper()
	got, err := m.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return got
}

func assertSQL(t *testing.T, got, expected string) {
	t.Helper()
	if got != expected {
		t.Errorf("expected:\n  %s\ngot:\n  %s", expected, got)
	}
}

// --- Default behaviour ---

func TestDefaultColumnDeletedAt(t *testing.T) {
	t.Parallel()
	m := managers.New("users").Use(New())
	assertSQL(t, build(t, m), "SELECT * FROM users WHERE users.deleted_at IS NULL")
}

func TestCustomColumnName(t *testing.T) {
	t.Parallel()
	m := managers.New("users").Use(New(WithColumn("removed_at")))
	assertSQL(t, build(t, m), "SELECT * FROM users WHERE users.removed_at IS NULL")
}

func TestPreservesExistingWheres(t *testing.T) {
	t.Parallel()
	m := managers.New("users").Where("active", 1).Use(New())
	assertSQL(t, build(t, m), "SELECT * FROM users WHERE active = '1' AND users.deleted_at IS NULL")
}

func TestQuotedColumns(t *testing.T) {
	t.Parallel()
	m := managers.New("users",
		managers.WithDialect(dialect.NewPostgres()),
		managers.WithQuoteTable(true),
		managers.WithQuoteColumn(true),
	).Use(New())
	assertSQL(t, build(t, m), `SELECT * FROM "users" WHERE "users"."deleted_at" IS NULL`)
}

// --- Joined tables ---

func TestAppliedToJoinedTablesByAlias(t *testing.T) {
	t.Parallel()
	m := managers.New("users").Use(New())
	m.Join("posts").As("p").On("p.user_id = users.id")

	expected := "SELECT * FROM users JOIN posts AS p ON (p.user_id = users.id)" +
		" WHERE users.deleted_at IS NULL AND p.deleted_at IS NULL"
	assertSQL(t, build(t, m), expected)
}

func TestWithTablesRestrictsScope(t *testing.T) {
	t.Parallel()
	m := managers.New("users").Use(New(WithTables("posts")))
	m.Join("posts").Left().On("posts.user_id = users.id")

	expected := "SELECT * FROM users LEFT JOIN posts ON (posts.user_id = users.id)" +
		" WHERE posts.deleted_at IS NULL"
	assertSQL(t, build(t, m), expected)
}

func TestWithTableColumnPerTable(t *testing.T) {
	t.Parallel()
	sd := New(
		WithTableColumn("users", "deleted_at"),
		WithTableColumn("posts", "removed_at"),
	)
	m := managers.New("users").Use(sd)
	m.Join("posts").On("posts.user_id = users.id")
	m.Join("tags")

	expected := "SELECT * FROM users JOIN posts ON (posts.user_id = users.id) JOIN tags" +
		" WHERE users.deleted_at IS NULL AND posts.removed_at IS NULL"
	assertSQL(t, build(t, m), expected)
}

// --- Other statement modes ---

func TestUpdateFiltersMainTable(t *testing.T) {
	t.Parallel()
	m := managers.New("users").
		Update(managers.Assign("name", "bob")).
		Where("id", 7).
		Use(New())
	assertSQL(t, build(t, m), "UPDATE users SET name = 'bob' WHERE id = '7' AND users.deleted_at IS NULL")
}

func TestInsertAndDeleteUnchanged(t *testing.T) {
	t.Parallel()
	ins := managers.New("users").Insert(managers.Assign("name", "bob")).Use(New())
	assertSQL(t, build(t, ins), "INSERT INTO users (name) VALUES ('bob')")

	del := managers.New("users").Delete().Where("id", 7).Use(New())
	assertSQL(t, build(t, del), "DELETE FROM users WHERE id = '7'")
}

// --- Isolation ---

func TestRepeatedBuildsDoNotAccumulate(t *testing.T) {
	t.Parallel()
	m := managers.New("users").Use(New())
	first := build(t, m)
	second := build(t, m)
	assertSQL(t, second, first)
	if n := m.Conditions().Len(); n != 0 {
		t.Errorf("expected manager conditions to stay empty, got %d", n)
	}
}

func TestNilWhereIsCreated(t *testing.T) {
	t.Parallel()
	stmt, err := New().TransformSelect(&plugins.Statement{Table: "users"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stmt.Where == nil || stmt.Where.Len() != 1 {
		t.Fatalf("expected one condition, got %+v", stmt.Where)
	}
}

var _ plugins.Transformer = (*SoftDelete)(nil)
