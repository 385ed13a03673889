// Package opa provides a Transformer that enforces Open Policy Agent
// policies on statements by injecting policy-derived WHERE conditions.
//
// You supply a [PolicyFunc] that is called once per table the statement
// touches. It receives the table reference and returns zero or more
// condition nodes to append to the WHERE clause. If the function returns
// an error the statement is rejected entirely, which is useful for hard
// "access denied" rules.
//
// SELECT statements are filtered for the main table and every joined
// table. UPDATE and DELETE are filtered for the main table only, so a
// policy also limits which rows can be modified. INSERT has no WHERE
// clause and is left alone.
//
// # Basic usage
//
//	policy := func(ref plugins.TableRef) ([]nodes.Node, error) {
//	    if ref.Name == "secrets" {
//	        return nil, errors.New("access denied")
//	    }
//	    if ref.Name == "users" {
//	        return []nodes.Node{nodes.Compare(ref.Ref+".tenant_id", "=", 42)}, nil
//	    }
//	    return nil, nil // no extra conditions
//	}
//
//	m := managers.New("users", managers.WithDialect(dialect.NewPostgres()))
//	m.Use(opa.New(policy))
//	// SELECT * FROM users WHERE "users"."tenant_id" = '42'
//
// # Server mode
//
// [NewFromServer] asks an OPA server's Compile API for the residual
// policy of each table (partial evaluation with data.<table> unknown) and
// translates it into conditions:
//
//	m.Use(opa.NewFromServer("http://localhost:8181", "authz.allow",
//	    map[string]any{"subject": map[string]any{"tenant_id": 42}}))
//
// # Combining with other plugins
//
// OPA composes with any other Transformer. Register multiple plugins
// with successive Use calls and they are applied in order:
//
//	m.Use(softdelete.New())
//	m.Use(opa.New(policy))
package opa

import (
	"github.com/bawdo/crudsql/nodes"
	"github.com/bawdo/crudsql/plugins"
)

// PolicyFunc evaluates a policy for the given table and returns
// conditions to inject into the statement's WHERE clause. Returning a
// non-nil error rejects the statement.
type PolicyFunc func(ref plugins.TableRef) ([]nodes.Node, error)

// OPA is a Transformer that evaluates a policy against the tables of a
// statement and injects the resulting conditions. It supports two modes:
//   - PolicyFunc mode (via [New]): calls a Go function to evaluate policy
//   - Server mode (via [NewFromServer]): calls an OPA server's Compile API
type OPA struct {
	plugins.BaseTransformer
	evalPolicy PolicyFunc
	client     *Client
}

// New creates an OPA transformer with the given policy function.
func New(policy PolicyFunc) *OPA {
	return &OPA{evalPolicy: policy}
}

// NewFromServer creates an OPA transformer backed by an OPA server. url is
// the base URL of the server (e.g. "http://localhost:8181"), policyPath
// the Rego rule (e.g. "data.authz.allow"), and input the input document
// sent with each request.
func NewFromServer(url, policyPath string, input map[string]any, opts ...ClientOption) *OPA {
	return &OPA{client: NewClient(url, policyPath, input, opts...)}
}

// Client returns the server client, or nil in PolicyFunc mode.
func (o *OPA) Client() *Client { return o.client }

// TransformSelect filters the main table and every joined table.
func (o *OPA) TransformSelect(stmt *plugins.Statement) (*plugins.Statement, error) {
	for _, ref := range plugins.CollectTables(stmt) {
		if err := o.apply(stmt, ref); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// TransformUpdate filters the main table.
func (o *OPA) TransformUpdate(stmt *plugins.Statement) (*plugins.Statement, error) {
	return o.mainTable(stmt)
}

// TransformDelete filters the main table.
func (o *OPA) TransformDelete(stmt *plugins.Statement) (*plugins.Statement, error) {
	return o.mainTable(stmt)
}

func (o *OPA) mainTable(stmt *plugins.Statement) (*plugins.Statement, error) {
	if stmt.Table == "" {
		return stmt, nil
	}
	if err := o.apply(stmt, plugins.TableRef{Ref: stmt.Table, Name: stmt.Table}); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (o *OPA) apply(stmt *plugins.Statement, ref plugins.TableRef) error {
	conditions, err := o.evaluate(ref)
	if err != nil {
		return err
	}
	if len(conditions) == 0 {
		return nil
	}
	if stmt.Where == nil {
		stmt.Where = nodes.NewConditions().SetQuoteColumns(stmt.QuoteColumns)
	}
	for _, c := range conditions {
		stmt.Where.AppendRaw(c)
	}
	return nil
}

func (o *OPA) evaluate(ref plugins.TableRef) ([]nodes.Node, error) {
	if o.client != nil {
		return o.client.Compile(ref)
	}
	if o.evalPolicy == nil {
		return nil, nil
	}
	return o.evalPolicy(ref)
}
