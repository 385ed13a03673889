package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bawdo/crudsql/plugins"
	"github.com/bawdo/crudsql/plugins/softdelete"
)

// configureSoftdelete parses softdelete arguments and registers the plugin.
// Accepted forms:
//
//	plugin softdelete                              deleted_at on every table
//	plugin softdelete removed_at                   custom column on every table
//	plugin softdelete removed_at on users posts    custom column, listed tables
//	plugin softdelete users.deleted_at, posts.gone per-table columns
func configureSoftdelete(s *Session, args string) error {
	rest := strings.TrimSpace(args)
	var opts []softdelete.Option
	var status string

	switch {
	case strings.Contains(rest, "."):
		var pairs []string
		for _, pair := range splitTopLevelCommas(rest) {
			table, col, ok := strings.Cut(pair, ".")
			if !ok || table == "" || col == "" || strings.ContainsAny(pair, " \t") {
				return fmt.Errorf("invalid table.column pair: %q", pair)
			}
			opts = append(opts, softdelete.WithTableColumn(table, col))
			pairs = append(pairs, table+"."+col)
		}
		if len(pairs) == 0 {
			return errors.New("usage: plugin softdelete <table.column>[, ...]")
		}
		sort.Strings(pairs)
		status = strings.Join(pairs, ", ")

	case strings.Contains(strings.ToLower(rest), " on "):
		idx := strings.Index(strings.ToLower(rest), " on ")
		col := strings.TrimSpace(rest[:idx])
		tables := strings.Fields(rest[idx+4:])
		if col == "" || len(tables) == 0 {
			return errors.New("usage: plugin softdelete <column> on <table1> [table2 ...]")
		}
		opts = append(opts, softdelete.WithColumn(col), softdelete.WithTables(tables...))
		status = fmt.Sprintf("column: %s, tables: %s", col, strings.Join(tables, ", "))

	case rest != "":
		col := strings.Fields(rest)[0]
		opts = append(opts, softdelete.WithColumn(col))
		status = "column: " + col

	default:
		status = "column: " + softdelete.DefaultColumn
	}

	s.plugins.register(pluginEntry{
		name:    "softdelete",
		factory: func() plugins.Transformer { return softdelete.New(opts...) },
		status:  func() string { return status },
	})
	s.printf("  Soft-delete enabled (%s)\n", status)
	return nil
}
