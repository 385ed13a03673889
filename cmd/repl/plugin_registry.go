package main

import (
	"slices"

	"github.com/bawdo/crudsql/plugins"
)

// pluginEntry is an enabled plugin. factory builds a fresh transformer
// for every manager the session assembles.
type pluginEntry struct {
	name    string
	factory func() plugins.Transformer
	status  func() string
}

// pluginRegistry is the ordered set of enabled plugins; transformers run
// in the order the plugins were first enabled.
type pluginRegistry struct {
	entries []pluginEntry
}

func (r *pluginRegistry) index(name string) int {
	return slices.IndexFunc(r.entries, func(e pluginEntry) bool { return e.name == name })
}

// register enables a plugin. Re-enabling replaces the configuration but
// keeps the plugin's position.
func (r *pluginRegistry) register(entry pluginEntry) {
	if i := r.index(entry.name); i >= 0 {
		r.entries[i] = entry
		return
	}
	r.entries = append(r.entries, entry)
}

// deregister disables a plugin and reports whether it was enabled.
func (r *pluginRegistry) deregister(name string) bool {
	i := r.index(name)
	if i < 0 {
		return false
	}
	r.entries = slices.Delete(r.entries, i, i+1)
	return true
}

func (r *pluginRegistry) deregisterAll() { r.entries = nil }

func (r *pluginRegistry) get(name string) (pluginEntry, bool) {
	if i := r.index(name); i >= 0 {
		return r.entries[i], true
	}
	return pluginEntry{}, false
}

func (r *pluginRegistry) names() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.name
	}
	return out
}

// applyTo hands a fresh transformer of every enabled plugin to use.
func (r *pluginRegistry) applyTo(use func(plugins.Transformer)) {
	for _, e := range r.entries {
		use(e.factory())
	}
}

// pluginConfigurer is a plugin the "plugin <name> [args]" command can
// enable.
type pluginConfigurer struct {
	name      string
	configure func(s *Session, args string) error
}
