// Package config loads REPL settings from a .crudsql.yaml file, the
// environment and an optional .env file.
//
// Keys and their environment variables:
//
//	engine        CRUDSQL_ENGINE        mysql | postgres | sqlite (default mysql)
//	database_url  CRUDSQL_DATABASE_URL  DSN; DATABASE_URL is used as a fallback
//	placeholder   CRUDSQL_PLACEHOLDER   none | positional | named | numbered
//	quote         CRUDSQL_QUOTE         auto | on | off (default auto)
//	log_level     CRUDSQL_LOG_LEVEL     zerolog level name (default info)
//	opa_url       CRUDSQL_OPA_URL       OPA server; with opa_policy enables the opa plugin
//	opa_policy    CRUDSQL_OPA_POLICY    policy rule, e.g. authz.allow
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/bawdo/crudsql/dialect"
	"github.com/bawdo/crudsql/internal/logging"
	"github.com/bawdo/crudsql/managers"
	"github.com/bawdo/crudsql/params"
)

// ErrInvalidQuote is returned for a quote setting other than auto/on/off.
var ErrInvalidQuote = errors.New("invalid quote setting")

// Config holds the resolved settings.
type Config struct {
	Engine      string
	DatabaseURL string
	Placeholder string
	Quote       string
	LogLevel    string
	OPAURL      string
	OPAPolicy   string
}

// Option configures Load.
type Option func(*loader)

type loader struct {
	paths   []string
	envFile string
}

// WithPaths sets the directories searched for .crudsql.yaml. The default
// is the working directory followed by the home directory.
func WithPaths(dirs ...string) Option {
	return func(l *loader) { l.paths = dirs }
}

// WithEnvFile sets the .env file to load. Variables already present in the
// environment are not overridden.
func WithEnvFile(path string) Option {
	return func(l *loader) { l.envFile = path }
}

// Load resolves the configuration. Missing config and .env files are not
// errors.
func Load(opts ...Option) (*Config, error) {
	l := &loader{envFile: ".env"}
	if home, err := os.UserHomeDir(); err == nil {
		l.paths = []string{".", home}
	} else {
		l.paths = []string{"."}
	}
	for _, o := range opts {
		o(l)
	}

	if err := loadEnvFile(l.envFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigName(".crudsql")
	v.SetConfigType("yaml")
	for _, p := range l.paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix("CRUDSQL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("engine", string(dialect.MySQL))
	v.SetDefault("placeholder", "none")
	v.SetDefault("quote", "auto")
	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Engine:      v.GetString("engine"),
		DatabaseURL: v.GetString("database_url"),
		Placeholder: v.GetString("placeholder"),
		Quote:       strings.ToLower(strings.TrimSpace(v.GetString("quote"))),
		LogLevel:    v.GetString("log_level"),
		OPAURL:      v.GetString("opa_url"),
		OPAPolicy:   v.GetString("opa_policy"),
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	return cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(filepath.Clean(path)); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Dialect resolves the configured engine.
func (c *Config) Dialect() (dialect.Dialect, error) {
	return dialect.ForName(c.Engine)
}

// PlaceholderMode resolves the configured placeholder mode.
func (c *Config) PlaceholderMode() (params.Mode, error) {
	return params.ParseMode(c.Placeholder)
}

// Level resolves the configured log level.
func (c *Config) Level() (zerolog.Level, error) {
	return logging.ParseLevel(c.LogLevel)
}

// ManagerOptions turns the configuration into CRUDManager options.
func (c *Config) ManagerOptions() ([]managers.Option, error) {
	d, err := c.Dialect()
	if err != nil {
		return nil, err
	}
	mode, err := c.PlaceholderMode()
	if err != nil {
		return nil, err
	}
	opts := []managers.Option{managers.WithDialect(d), managers.WithPlaceholder(mode)}
	switch c.Quote {
	case "", "auto":
	case "on", "true", "yes":
		opts = append(opts, managers.WithQuoting(true))
	case "off", "false", "no":
		opts = append(opts, managers.WithQuoting(false))
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidQuote, c.Quote)
	}
	return opts, nil
}
