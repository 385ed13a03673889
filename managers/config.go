package managers

import (
	"github.com/bawdo/crudsql/dialect"
	"github.com/bawdo/crudsql/params"
)

// Config is the rendering configuration of a CRUDManager. It is a plain
// value: copying it and passing it to WithConfig gives a second manager the
// same behaviour.
type Config struct {
	Dialect     dialect.Dialect
	Placeholder params.Mode
	QuoteTable  bool
	QuoteColumn bool
	Trim        bool
}

// Option configures a CRUDManager at construction time. The dialect cannot
// be changed afterwards.
type Option func(*options)

type options struct {
	cfg            Config
	quoteTableSet  bool
	quoteColumnSet bool
}

// WithDialect sets the dialect. Unless quoting is set explicitly, table and
// column quoting follow the dialect's default.
func WithDialect(d dialect.Dialect) Option {
	return func(o *options) { o.cfg.Dialect = d }
}

// WithPlaceholder sets the placeholder mode.
func WithPlaceholder(mode params.Mode) Option {
	return func(o *options) { o.cfg.Placeholder = mode }
}

// WithQuoteTable turns table name quoting on or off.
func WithQuoteTable(on bool) Option {
	return func(o *options) {
		o.cfg.QuoteTable = on
		o.quoteTableSet = true
	}
}

// WithQuoteColumn turns column name quoting on or off.
func WithQuoteColumn(on bool) Option {
	return func(o *options) {
		o.cfg.QuoteColumn = on
		o.quoteColumnSet = true
	}
}

// WithQuoting turns table and column quoting on or off together.
func WithQuoting(on bool) Option {
	return func(o *options) {
		WithQuoteTable(on)(o)
		WithQuoteColumn(on)(o)
	}
}

// WithTrim trims surrounding whitespace from rendered SQL.
func WithTrim(on bool) Option {
	return func(o *options) { o.cfg.Trim = on }
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = cfg
		o.quoteTableSet = true
		o.quoteColumnSet = true
	}
}

// newConfig applies opts over the defaults: MySQL, no placeholders.
func newConfig(opts []Option) Config {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.cfg.Dialect == nil {
		o.cfg.Dialect = dialect.NewMySQL()
	}
	if !o.quoteTableSet {
		o.cfg.QuoteTable = o.cfg.Dialect.QuoteByDefault()
	}
	if !o.quoteColumnSet {
		o.cfg.QuoteColumn = o.cfg.Dialect.QuoteByDefault()
	}
	return o.cfg
}
