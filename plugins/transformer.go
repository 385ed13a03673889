// Package plugins defines the Transformer interface for statement
// middleware.
package plugins

import "github.com/bawdo/crudsql/nodes"

// Statement is the part of a statement a Transformer may rewrite. It is
// built from a fresh copy of the manager's conditions and joins on every
// render, so changes never leak back into the manager.
type Statement struct {
	Table        string
	Where        *nodes.Conditions
	Joins        []*nodes.Join
	QuoteColumns bool
}

// Transformer is the interface that statement transformation plugins
// implement. Plugins embed BaseTransformer and override only the methods
// they need.
type Transformer interface {
	TransformSelect(stmt *Statement) (*Statement, error)
	TransformInsert(stmt *Statement) (*Statement, error)
	TransformUpdate(stmt *Statement) (*Statement, error)
	TransformDelete(stmt *Statement) (*Statement, error)
}

// BaseTransformer provides no-op defaults for all Transformer methods.
type BaseTransformer struct{}

func (BaseTransformer) TransformSelect(s *Statement) (*Statement, error) { return s, nil }
func (BaseTransformer) TransformInsert(s *Statement) (*Statement, error) { return s, nil }
func (BaseTransformer) TransformUpdate(s *Statement) (*Statement, error) { return s, nil }
func (BaseTransformer) TransformDelete(s *Statement) (*Statement, error) { return s, nil }
