package main

import (
	"testing"

	"github.com/bawdo/crudsql/dialect"
	"github.com/bawdo/crudsql/internal/testutil"
)

// answers returns an askFunc that replies from m and falls back to the
// default.
func answers(m map[string]string) askFunc {
	return func(label, def string) string {
		if v, ok := m[label]; ok {
			return v
		}
		return def
	}
}

func TestBuildDSNSQLite(t *testing.T) {
	t.Parallel()
	testutil.AssertEqual(t, buildDSN(dialect.SQLite, answers(nil)), ":memory:")
	testutil.AssertEqual(t, buildDSN(dialect.SQLite, answers(map[string]string{"Database path": "app.db"})), "app.db")
}

func TestBuildDSNPostgres(t *testing.T) {
	t.Parallel()
	got := buildDSN(dialect.Postgres, answers(map[string]string{
		"User": "app", "Password": "s3cret", "Host": "db", "Database": "shop",
	}))
	testutil.AssertEqual(t, got, "postgres://app:s3cret@db:5432/shop?sslmode=disable")

	got = buildDSN(dialect.Postgres, answers(map[string]string{"User": "app", "SSL mode (disable/require/verify-full)": "require"}))
	testutil.AssertEqual(t, got, "postgres://app@localhost:5432/app?sslmode=require")
}

func TestBuildDSNMySQL(t *testing.T) {
	t.Parallel()
	got := buildDSN(dialect.MySQL, answers(map[string]string{"Password": "pw", "Database": "app"}))
	testutil.AssertEqual(t, got, "root:pw@tcp(localhost:3306)/app")

	// No database means no connection.
	testutil.AssertEqual(t, buildDSN(dialect.MySQL, answers(nil)), "")
}
