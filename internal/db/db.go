// Package db executes statements built by a CRUDManager through
// database/sql. It registers the MySQL, PostgreSQL (pgx) and SQLite
// drivers.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/bawdo/crudsql/dialect"
	"github.com/bawdo/crudsql/managers"
	"github.com/bawdo/crudsql/params"
)

var (
	// ErrNamedUnsupported is returned when named placeholders are used with
	// a driver that does not accept them.
	ErrNamedUnsupported = errors.New("named placeholders are not supported by this engine")
	// ErrNumberedUnsupported is returned when $n placeholders are used with
	// an engine other than PostgreSQL.
	ErrNumberedUnsupported = errors.New("numbered placeholders are only supported by postgresql")
	// ErrDialectMismatch is returned when a statement was built for a
	// different dialect than the connection's.
	ErrDialectMismatch = errors.New("statement dialect does not match the connection")
)

var driverName = map[dialect.Name]string{
	dialect.Postgres: "pgx",
	dialect.MySQL:    "mysql",
	dialect.SQLite:   "sqlite",
}

// MaxRows caps the rows collected by Query.
const MaxRows = 1000

type schemaCache struct {
	tables  []string
	columns map[string][]string
}

// Conn is a database handle bound to one engine.
type Conn struct {
	db     *sql.DB
	engine dialect.Name
	log    zerolog.Logger
	schema schemaCache
}

// Option configures a Conn.
type Option func(*Conn)

// WithLogger sets the logger used for statement and lifecycle logging.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Conn) { c.log = l }
}

// Open opens and pings a connection. engine is any name dialect.ForName
// accepts.
func Open(ctx context.Context, engine, dsn string, opts ...Option) (*Conn, error) {
	d, err := dialect.ForName(engine)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName[d.Name()], dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	c := NewConn(db, d.Name(), opts...)
	c.log.Info().Str("engine", string(d.Name())).Str("dsn", SanitizeDSN(dsn)).Msg("connected")
	return c, nil
}

// NewConn wraps an existing *sql.DB.
func NewConn(db *sql.DB, engine dialect.Name, opts ...Option) *Conn {
	c := &Conn{db: db, engine: engine, log: zerolog.Nop()}
	c.schema.columns = make(map[string][]string)
	for _, o := range opts {
		o(c)
	}
	return c
}

// Engine returns the connection's dialect name.
func (c *Conn) Engine() dialect.Name { return c.engine }

// Close closes the underlying database.
func (c *Conn) Close() error {
	c.log.Info().Str("engine", string(c.engine)).Msg("disconnected")
	return c.db.Close()
}

// Statement renders m into SQL and driver arguments for this connection.
func (c *Conn) Statement(m *managers.CRUDManager) (string, []any, error) {
	if name := m.Dialect().Name(); name != c.engine {
		return "", nil, fmt.Errorf("%w: %s statement on %s connection", ErrDialectMismatch, name, c.engine)
	}
	mode := m.Config().Placeholder
	switch {
	case mode == params.Named && c.engine != dialect.SQLite:
		return "", nil, fmt.Errorf("%s: %w", c.engine, ErrNamedUnsupported)
	case mode == params.Numbered && c.engine != dialect.Postgres:
		return "", nil, fmt.Errorf("%s: %w", c.engine, ErrNumberedUnsupported)
	}

	args := params.New(mode)
	query, err := m.Render(args)
	if err != nil {
		return "", nil, err
	}
	if mode == params.Named {
		named, err := args.NamedArgs()
		if err != nil {
			return "", nil, err
		}
		return query, named, nil
	}
	return query, args.Values(), nil
}

// Query runs a SELECT (or any row-returning statement) and collects up to
// MaxRows rows as strings.
func (c *Conn) Query(ctx context.Context, m *managers.CRUDManager) (*Result, error) {
	query, args, err := c.Statement(m)
	if err != nil {
		return nil, err
	}
	c.log.Debug().Str("sql", query).Int("params", len(args)).Msg("query")
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return collect(rows)
}

// Exec runs a statement that returns no rows.
func (c *Conn) Exec(ctx context.Context, m *managers.CRUDManager) (sql.Result, error) {
	query, args, err := c.Statement(m)
	if err != nil {
		return nil, err
	}
	c.log.Debug().Str("sql", query).Int("params", len(args)).Msg("exec")
	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("exec: %w", err)
	}
	return res, nil
}

// Tables lists the tables of the current database. The result is cached.
func (c *Conn) Tables(ctx context.Context) ([]string, error) {
	if c.schema.tables != nil {
		return c.schema.tables, nil
	}
	var query string
	switch c.engine {
	case dialect.Postgres:
		query = "SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' ORDER BY table_name"
	case dialect.MySQL:
		query = "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() ORDER BY table_name"
	case dialect.SQLite:
		query = "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
	default:
		return nil, fmt.Errorf("%w: %q", dialect.ErrUnknownDialect, c.engine)
	}
	tables, err := c.queryStrings(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	c.schema.tables = tables
	return tables, nil
}

// Columns lists the columns of table in ordinal order. The result is
// cached per table.
func (c *Conn) Columns(ctx context.Context, table string) ([]string, error) {
	if cols, ok := c.schema.columns[table]; ok {
		return cols, nil
	}
	var query string
	switch c.engine {
	case dialect.Postgres:
		query = "SELECT column_name FROM information_schema.columns WHERE table_schema = 'public' AND table_name = $1 ORDER BY ordinal_position"
	case dialect.MySQL:
		query = "SELECT column_name FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position"
	case dialect.SQLite:
		query = "SELECT name FROM pragma_table_info(?)"
	default:
		return nil, fmt.Errorf("%w: %q", dialect.ErrUnknownDialect, c.engine)
	}
	cols, err := c.queryStrings(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", table, err)
	}
	c.schema.columns[table] = cols
	return cols, nil
}

func (c *Conn) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	result := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
