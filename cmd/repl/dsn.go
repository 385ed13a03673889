package main

import (
	"net"
	"net/url"
	"os/user"

	"github.com/go-sql-driver/mysql"

	"github.com/bawdo/crudsql/dialect"
)

// askFunc asks for one setting and returns the answer or def.
type askFunc func(label, def string) string

// buildDSN walks through the connection settings of engine. An empty
// result means the user declined to configure a connection.
func buildDSN(engine dialect.Name, ask askFunc) string {
	switch engine {
	case dialect.SQLite:
		return ask("Database path", ":memory:")
	case dialect.Postgres:
		return postgresDSN(ask)
	default:
		return mysqlDSN(ask)
	}
}

func postgresDSN(ask askFunc) string {
	defUser := "postgres"
	if u, err := user.Current(); err == nil && u.Username != "" {
		defUser = u.Username
	}
	name := ask("User", defUser)
	pass := ask("Password", "")
	host := ask("Host", "localhost")
	port := ask("Port", "5432")
	dbName := ask("Database", name)
	sslMode := ask("SSL mode (disable/require/verify-full)", "disable")

	u := &url.URL{
		Scheme:   "postgres",
		User:     url.User(name),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + dbName,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	if pass != "" {
		u.User = url.UserPassword(name, pass)
	}
	return u.String()
}

func mysqlDSN(ask askFunc) string {
	cfg := mysql.NewConfig()
	cfg.User = ask("User", "root")
	cfg.Passwd = ask("Password", "")
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(ask("Host", "localhost"), ask("Port", "3306"))
	cfg.DBName = ask("Database", "")
	if cfg.DBName == "" {
		return ""
	}
	return cfg.FormatDSN()
}
