package crudsql_test

import (
	"testing"

	"github.com/bawdo/crudsql"
	"github.com/bawdo/crudsql/internal/testutil"
	"github.com/bawdo/crudsql/params"
)

func TestSimpleImportStyle(t *testing.T) {
	t.Parallel()
	m := crudsql.New("users", crudsql.WithDialect(crudsql.Postgres())).
		Select("id", "name").
		Where("active", true).
		Order("name", "ASC").
		Limit(10)

	sql, err := m.Build()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, sql, "SELECT id,name FROM users WHERE active = 'true' ORDER BY name ASC LIMIT 10")
}

func TestParameterisedInsert(t *testing.T) {
	t.Parallel()
	m := crudsql.New("events",
		crudsql.WithDialect(crudsql.Postgres()),
		crudsql.WithPlaceholder(crudsql.Numbered),
	).Insert(
		crudsql.Assign("kind", "login"),
		crudsql.Assign("created_at", crudsql.Raw("NOW()")),
		crudsql.Assign("seen", crudsql.Func("COALESCE", crudsql.Raw("seen"), 0)),
	)

	sql, ps, err := m.ToSQL()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, sql, "INSERT INTO events (kind,created_at,seen) VALUES ($1,NOW(),COALESCE(seen, $2))")
	testutil.AssertParams(t, ps, []params.Param{
		{Key: "kind", Value: "login"},
		{Key: "p2", Value: 0},
	})
}

func TestWithQuoting(t *testing.T) {
	t.Parallel()
	m := crudsql.New("users", crudsql.WithDialect(crudsql.SQLite()), crudsql.WithQuoting(false)).
		WhereRaw(crudsql.Compare("age", ">", 18))

	sql, err := m.Build()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, sql, `SELECT * FROM users WHERE "age" > '18'`)
}

func TestBareAssignmentsNamed(t *testing.T) {
	t.Parallel()
	m := crudsql.New("t", crudsql.WithPlaceholder(crudsql.Named)).
		Update(crudsql.Bare("foo"))

	sql, ps, err := m.ToSQL()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, sql, "UPDATE t SET foo = :foo")
	testutil.AssertParams(t, ps, []params.Param{{Key: "foo", Value: "foo"}})
}
