// REPL binary for interactively assembling and executing CRUD statements.
//
// Settings are read from ./.crudsql.yaml or ~/.crudsql.yaml, a .env file
// and CRUDSQL_* environment variables:
//
//	CRUDSQL_ENGINE=mysql|postgres|sqlite   (default mysql)
//	CRUDSQL_PLACEHOLDER=none|positional|named|numbered
//	CRUDSQL_QUOTE=auto|on|off
//	CRUDSQL_LOG_LEVEL=debug|info|warn|error
//	DATABASE_URL=<dsn>                     (optional, auto-connects if set)
//
// Usage:
//
//	go run ./cmd/repl
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"

	"github.com/bawdo/crudsql/internal/config"
	"github.com/bawdo/crudsql/internal/db"
	"github.com/bawdo/crudsql/internal/logging"
)

const replPrompt = "crudsql> "

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	level, err := cfg.Level()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(logging.WithLevel(level))

	rl, err := readline.NewFromConfig(&readline.Config{
		Prompt:          "[Config] ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("readline init")
	}
	defer func() { _ = rl.Close() }()

	sess := NewSession(*cfg, rl, log)
	fmt.Printf("[Config] Dialect: %s\n", sess.engine())

	_ = rl.SetConfig(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyPath(),
		HistoryLimit:    500,
		AutoComplete:    &replCompleter{sess: sess},
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})

	if cfg.DatabaseURL != "" {
		fmt.Printf("[Config] Connecting via DATABASE_URL...\n")
		if err := sess.cmdConnect(cfg.DatabaseURL); err != nil {
			log.Warn().Err(err).Msg("DATABASE_URL connect failed")
		}
	} else {
		loadConnection(rl, sess)
	}

	fmt.Println()
	fmt.Println("crudsql REPL. Type 'help' for commands, 'exit' to quit")
	fmt.Println()

	rl.SetPrompt(replPrompt)
	for {
		line, err := rl.ReadLine()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil { // io.EOF on ctrl-D
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if lower == "exit" || lower == "quit" {
			break
		}
		if err := sess.Execute(line); err != nil {
			fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
		}
	}
	if sess.conn != nil {
		_ = sess.conn.Close()
	}
	fmt.Println()
}

// loadConnection offers the connection wizard for the session's engine.
func loadConnection(rl *readline.Instance, sess *Session) {
	answer := strings.ToLower(prompt(rl, "Connect to a database? (y/N)", ""))
	if answer != "y" && answer != "yes" {
		fmt.Println("[Config] Skipped. Use 'connect <dsn>' later to connect")
		return
	}

	fmt.Printf("[Config] %s connection setup:\n", sess.engine())
	dsn := buildDSN(sess.engine(), func(label, def string) string { return prompt(rl, label, def) })
	if dsn == "" {
		fmt.Println("[Config] No connection configured. Use 'connect <dsn>' later")
		return
	}

	fmt.Printf("[Config] DSN: %s\n", db.SanitizeDSN(dsn))
	if err := sess.cmdConnect(dsn); err != nil {
		sess.log.Warn().Err(err).Msg("connect failed, use 'connect <dsn>' to retry")
	}
}

// prompt reads one line under a "[Config]" label. An empty answer, a read
// error or a nil instance yields defaultVal.
func prompt(rl *readline.Instance, label, defaultVal string) string {
	if rl == nil {
		return defaultVal
	}
	p := "[Config]   " + label
	if defaultVal != "" {
		p += " [" + defaultVal + "]"
	}
	rl.SetPrompt(p + ": ")
	defer rl.SetPrompt(replPrompt)

	line, err := rl.ReadLine()
	if val := strings.TrimSpace(line); err == nil && val != "" {
		return val
	}
	return defaultVal
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".crudsql_history")
}
