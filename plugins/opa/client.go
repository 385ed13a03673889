package opa

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bawdo/crudsql/dialect"
	"github.com/bawdo/crudsql/internal/quoting"
	"github.com/bawdo/crudsql/nodes"
	"github.com/bawdo/crudsql/plugins"
)

// ErrAccessDenied is returned when the policy has no satisfiable query
// for a table.
var ErrAccessDenied = errors.New("opa: access denied")

// Client communicates with an OPA server's Compile API.
type Client struct {
	baseURL    string
	policyPath string
	input      map[string]any
	httpClient *http.Client
	log        zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client (5 second timeout).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger logs each request at debug level.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = l }
}

// NewClient creates a Client for the given base URL, policy path and
// input. The policy path gets a "data." prefix if it has none.
//
// The baseURL is used as-is. Use HTTPS in production so policy decisions
// and input data are not sent in plain text.
func NewClient(baseURL, policyPath string, input map[string]any, opts ...ClientOption) *Client {
	if !strings.HasPrefix(policyPath, "data.") {
		policyPath = "data." + policyPath
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		policyPath: policyPath,
		input:      input,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		log:        zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// PolicyPath returns the normalized policy path.
func (c *Client) PolicyPath() string { return c.policyPath }

// postJSON posts a JSON body and returns the response body. Non-200
// responses are errors.
func (c *Client) postJSON(path string, reqBody []byte) ([]byte, error) {
	c.log.Debug().Str("path", path).RawJSON("request", reqBody).Msg("opa request")
	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// --- Compile API response types ---

type compileResponse struct {
	Result compileResult `json:"result"`
}

type compileResult struct {
	Queries [][]compileExpression `json:"queries"`
}

type compileExpression struct {
	Index int
	Terms []compileTerm
}

type compileTerm struct {
	Type  string
	Value any // string, int, float64, bool, nil, or []compileTerm for refs
}

// UnmarshalJSON accepts both serialisations OPA uses for expression
// terms: an array for calls and a single object for bare terms.
func (ce *compileExpression) UnmarshalJSON(data []byte) error {
	var raw struct {
		Index int             `json:"index"`
		Terms json.RawMessage `json:"terms"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ce.Index = raw.Index
	trimmed := bytes.TrimSpace(raw.Terms)
	switch {
	case len(trimmed) == 0:
		ce.Terms = nil
	case trimmed[0] == '[':
		return json.Unmarshal(trimmed, &ce.Terms)
	default:
		var term compileTerm
		if err := json.Unmarshal(trimmed, &term); err != nil {
			return err
		}
		ce.Terms = []compileTerm{term}
	}
	return nil
}

// UnmarshalJSON decodes Value according to the Type field.
func (ct *compileTerm) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ct.Type = raw.Type

	switch raw.Type {
	case "string", "var":
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return fmt.Errorf("opa: unmarshal %s value: %w", raw.Type, err)
		}
		ct.Value = s
	case "number":
		var f float64
		if err := json.Unmarshal(raw.Value, &f); err != nil {
			return fmt.Errorf("opa: unmarshal number value: %w", err)
		}
		// Whole numbers are stored as int.
		if f == math.Trunc(f) && !math.IsInf(f, 0) && !math.IsNaN(f) {
			ct.Value = int(f)
		} else {
			ct.Value = f
		}
	case "boolean":
		var b bool
		if err := json.Unmarshal(raw.Value, &b); err != nil {
			return fmt.Errorf("opa: unmarshal boolean value: %w", err)
		}
		ct.Value = b
	case "null":
		ct.Value = nil
	case "ref":
		var terms []compileTerm
		if err := json.Unmarshal(raw.Value, &terms); err != nil {
			return fmt.Errorf("opa: unmarshal ref value: %w", err)
		}
		ct.Value = terms
	default:
		return fmt.Errorf("opa: unknown term type %q", raw.Type)
	}
	return nil
}

func parseCompileResponse(data []byte) (*compileResponse, error) {
	var resp compileResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("opa: parse compile response: %w", err)
	}
	return &resp, nil
}

// --- Expression translation ---

// extractOperator returns the operator name from the first term of a call,
// a ref holding a single var.
func extractOperator(term compileTerm) (string, error) {
	if term.Type != "ref" {
		return "", fmt.Errorf("opa: operator term must be ref, got %s", term.Type)
	}
	parts, ok := term.Value.([]compileTerm)
	if !ok || len(parts) == 0 {
		return "", errors.New("opa: operator ref has no parts")
	}
	if parts[0].Type != "var" {
		return "", fmt.Errorf("opa: operator ref[0] must be var, got %s", parts[0].Type)
	}
	name, ok := parts[0].Value.(string)
	if !ok {
		return "", errors.New("opa: operator var value is not a string")
	}
	return name, nil
}

// extractColumnName returns the last string element of a data ref.
func extractColumnName(term compileTerm) (string, error) {
	if term.Type != "ref" {
		return "", fmt.Errorf("opa: column term must be ref, got %s", term.Type)
	}
	parts, ok := term.Value.([]compileTerm)
	if !ok || len(parts) == 0 {
		return "", errors.New("opa: column ref has no parts")
	}
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i].Type == "string" {
			s, ok := parts[i].Value.(string)
			if !ok {
				return "", errors.New("opa: column ref string value is not a string")
			}
			return s, nil
		}
	}
	return "", errors.New("opa: column ref has no string element")
}

// isDataRef reports whether the term is a ref starting with var "data".
func isDataRef(term compileTerm) bool {
	if term.Type != "ref" {
		return false
	}
	parts, ok := term.Value.([]compileTerm)
	if !ok || len(parts) == 0 || parts[0].Type != "var" {
		return false
	}
	name, ok := parts[0].Value.(string)
	return ok && name == "data"
}

// operands splits a call into its data-ref column and value term. OPA does
// not guarantee operand order.
func operands(expr compileExpression) (column string, value compileTerm, err error) {
	var colTerm compileTerm
	switch {
	case isDataRef(expr.Terms[1]):
		colTerm, value = expr.Terms[1], expr.Terms[2]
	case isDataRef(expr.Terms[2]):
		colTerm, value = expr.Terms[2], expr.Terms[1]
	default:
		return "", compileTerm{}, errors.New("opa: expression has no data ref term")
	}
	column, err = extractColumnName(colTerm)
	return column, value, err
}

var comparisonOps = map[string]string{
	"eq":    "=",
	"equal": "=",
	"neq":   "!=",
	"lt":    "<",
	"lte":   "<=",
	"gt":    ">",
	"gte":   ">=",
}

// translateExpression converts one compile expression into a condition
// on ref's columns.
func translateExpression(expr compileExpression, ref plugins.TableRef) (nodes.Node, error) {
	if len(expr.Terms) < 3 {
		return nil, fmt.Errorf("opa: expression has %d terms, need at least 3", len(expr.Terms))
	}
	op, err := extractOperator(expr.Terms[0])
	if err != nil {
		return nil, err
	}
	colName, valTerm, err := operands(expr)
	if err != nil {
		return nil, err
	}
	if valTerm.Type == "ref" {
		return nil, fmt.Errorf("opa: unresolved reference compared with %s.%s", ref.Name, colName)
	}
	col := ref.Ref + "." + colName
	val := valTerm.Value

	if sqlOp, ok := comparisonOps[op]; ok {
		if val == nil {
			switch sqlOp {
			case "=":
				return nodes.IsNull(col), nil
			case "!=":
				return nodes.NewBinary(nodes.Ident(col), "IS NOT", nodes.Raw("NULL")), nil
			}
			return nil, fmt.Errorf("opa: %s cannot compare with null", op)
		}
		return nodes.Compare(col, sqlOp, val), nil
	}

	var pattern func(string) string
	switch op {
	case "startswith":
		pattern = func(s string) string { return s + "%" }
	case "endswith":
		pattern = func(s string) string { return "%" + s }
	case "contains":
		pattern = func(s string) string { return "%" + s + "%" }
	default:
		return nil, fmt.Errorf("opa: unsupported operator %q", op)
	}
	s, ok := val.(string)
	if !ok {
		return nil, fmt.Errorf("opa: %s requires a string value, got %T", op, val)
	}
	return nodes.Compare(col, "LIKE", pattern(quoting.EscapeLikePattern(s))), nil
}

// translateQueries converts a full query set into WHERE conditions.
//
//   - no queries: access denied
//   - one empty query: unconditional allow (no conditions)
//   - one query: each expression is a separate condition (AND'd by the WHERE clause)
//   - several queries: each is AND'd internally, then the groups are OR'd
func translateQueries(queries [][]compileExpression, ref plugins.TableRef) ([]nodes.Node, error) {
	if len(queries) == 0 {
		return nil, fmt.Errorf("%w to %s", ErrAccessDenied, ref.Name)
	}
	if len(queries) == 1 {
		conditions := make([]nodes.Node, 0, len(queries[0]))
		for _, expr := range queries[0] {
			n, err := translateExpression(expr, ref)
			if err != nil {
				return nil, err
			}
			conditions = append(conditions, n)
		}
		return conditions, nil
	}

	groups := make([]nodes.Node, len(queries))
	for i, query := range queries {
		if len(query) == 0 {
			// One unconditional branch makes the whole disjunction true.
			return nil, nil
		}
		exprs := make([]nodes.Node, len(query))
		for j, expr := range query {
			n, err := translateExpression(expr, ref)
			if err != nil {
				return nil, err
			}
			exprs[j] = n
		}
		groups[i] = nodes.Group(nodes.AllOf(exprs...))
	}
	return []nodes.Node{nodes.AnyOf(groups...)}, nil
}

// --- Compile API request ---

type compileRequest struct {
	Query    string   `json:"query"`
	Input    any      `json:"input,omitempty"`
	Unknowns []string `json:"unknowns"`
}

func (c *Client) compile(input any, unknowns ...string) (reqBody, respBody []byte, parsed *compileResponse, err error) {
	reqBody, err = json.Marshal(compileRequest{
		Query:    c.policyPath + " == true",
		Input:    input,
		Unknowns: unknowns,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opa: marshal compile request: %w", err)
	}
	respBody, err = c.postJSON("/v1/compile", reqBody)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opa: compile request failed: %w", err)
	}
	parsed, err = parseCompileResponse(respBody)
	return reqBody, respBody, parsed, err
}

// Compile partially evaluates the policy with data.<table> unknown and
// returns the residual as conditions on ref's columns.
func (c *Client) Compile(ref plugins.TableRef) ([]nodes.Node, error) {
	_, _, parsed, err := c.compile(c.input, "data."+ref.Name)
	if err != nil {
		return nil, err
	}
	return translateQueries(parsed.Result.Queries, ref)
}

// --- Explain ---

// ExplainTranslation records how a single OPA expression was translated.
type ExplainTranslation struct {
	Operator string // OPA operator (eq, neq, lt, ...)
	Column   string // column name from the data ref
	Value    any    // literal value
	SQL      string // resulting SQL fragment, empty when translation failed
}

// ExplainResult holds the diagnostic output of Explain.
type ExplainResult struct {
	RequestJSON        string
	RawJSON            string
	QueryCount         int
	ExpressionCount    int
	Translations       []ExplainTranslation
	Conditions         []string
	UnconditionalAllow bool
	AccessDenied       bool
}

// Explain calls the Compile API for a table and reports how the response
// translates into SQL rendered for d.
func (c *Client) Explain(ref plugins.TableRef, d dialect.Dialect) (*ExplainResult, error) {
	req, body, parsed, err := c.compile(c.input, "data."+ref.Name)
	if err != nil {
		return nil, err
	}
	queries := parsed.Result.Queries
	result := &ExplainResult{
		RequestJSON: string(req),
		RawJSON:     string(body),
		QueryCount:  len(queries),
	}
	for _, q := range queries {
		result.ExpressionCount += len(q)
	}
	switch {
	case len(queries) == 0:
		result.AccessDenied = true
		return result, nil
	case len(queries) == 1 && len(queries[0]) == 0:
		result.UnconditionalAllow = true
		return result, nil
	}

	for _, q := range queries {
		for _, expr := range q {
			var tr ExplainTranslation
			if len(expr.Terms) > 0 {
				tr.Operator, _ = extractOperator(expr.Terms[0])
			}
			if len(expr.Terms) >= 3 {
				if col, val, err := operands(expr); err == nil {
					tr.Column, tr.Value = col, val.Value
				}
			}
			if n, err := translateExpression(expr, ref); err == nil {
				tr.SQL, _ = n.ToSQL(d, nil)
			}
			result.Translations = append(result.Translations, tr)
		}
	}

	conditions, err := translateQueries(queries, ref)
	if err != nil {
		return nil, err
	}
	for _, n := range conditions {
		s, err := n.ToSQL(d, nil)
		if err != nil {
			return nil, err
		}
		result.Conditions = append(result.Conditions, s)
	}
	return result, nil
}

// --- Input discovery ---

// inputRefPath returns the dot-joined path of a ref starting with var
// "input" (e.g. "subject.role").
func inputRefPath(term compileTerm) (string, bool) {
	if term.Type != "ref" {
		return "", false
	}
	parts, ok := term.Value.([]compileTerm)
	if !ok || len(parts) < 2 || parts[0].Type != "var" {
		return "", false
	}
	if name, ok := parts[0].Value.(string); !ok || name != "input" {
		return "", false
	}
	segments := make([]string, 0, len(parts)-1)
	for _, p := range parts[1:] {
		s, ok := p.Value.(string)
		if p.Type != "string" || !ok {
			return "", false
		}
		segments = append(segments, s)
	}
	return strings.Join(segments, "."), true
}

// extractInputPaths returns the sorted unique input paths referenced by
// a compile response.
func extractInputPaths(resp *compileResponse) []string {
	seen := map[string]bool{}
	for _, query := range resp.Result.Queries {
		for _, expr := range query {
			for _, term := range expr.Terms {
				if path, ok := inputRefPath(term); ok {
					seen[path] = true
				}
			}
		}
	}
	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// DiscoverInputs compiles the policy with "input" unknown to find which
// input fields it references. Extra data paths (e.g. "data.orders") make
// rules that reference them produce residuals too.
func (c *Client) DiscoverInputs(dataUnknowns ...string) ([]string, error) {
	unknowns := append([]string{"input"}, dataUnknowns...)
	_, _, parsed, err := c.compile(map[string]any{}, unknowns...)
	if err != nil {
		return nil, err
	}
	return extractInputPaths(parsed), nil
}
