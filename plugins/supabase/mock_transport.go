package supabase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// MockTransport emulates the subset of PostgREST the tools use (select,
// insert and update with eq filters) over in-memory tables, and captures
// every request for verification.
type MockTransport struct {
	mu       sync.Mutex
	tables   map[string][]map[string]any
	failures map[string]mockFailure
	requests []CapturedRequest
}

// CapturedRequest is a request seen by MockTransport.
type CapturedRequest struct {
	Method string
	Table  string
	Query  string
	Header http.Header
	Body   string
}

type mockFailure struct {
	status int
	err    Error
}

func NewMockTransport() *MockTransport {
	return &MockTransport{
		tables:   make(map[string][]map[string]any),
		failures: make(map[string]mockFailure),
	}
}

// Seed appends rows to table.
func (m *MockTransport) Seed(table string, rows ...map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.tables[table] = append(m.tables[table], normalizeRow(r))
	}
}

// Rows returns a copy of the rows currently stored in table.
func (m *MockTransport) Rows(table string) []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]map[string]any, 0, len(m.tables[table]))
	for _, r := range m.tables[table] {
		cp := make(map[string]any, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out = append(out, cp)
	}
	return out
}

// Fail makes every request with method on table answer status with apiErr
// until ClearFailures is called.
func (m *MockTransport) Fail(method, table string, status int, apiErr Error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[method+" "+table] = mockFailure{status: status, err: apiErr}
}

func (m *MockTransport) ClearFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = make(map[string]mockFailure)
}

func (m *MockTransport) Requests() []CapturedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CapturedRequest(nil), m.requests...)
}

// RoundTrip implements http.RoundTripper
func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		body = b
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	table := strings.TrimPrefix(req.URL.Path, restPath)
	m.requests = append(m.requests, CapturedRequest{
		Method: req.Method,
		Table:  table,
		Query:  req.URL.RawQuery,
		Header: req.Header.Clone(),
		Body:   string(body),
	})

	if !strings.HasPrefix(req.URL.Path, restPath) || table == "" {
		return jsonResponse(req, http.StatusNotFound, Error{Code: "PGRST125", Message: "Invalid path specified in request URL"})
	}
	if f, ok := m.failures[req.Method+" "+table]; ok {
		return jsonResponse(req, f.status, f.err)
	}

	query := req.URL.Query()
	filters := make(map[string]string)
	for col, vals := range query {
		if col == "select" || len(vals) == 0 {
			continue
		}
		op, val, ok := strings.Cut(vals[0], ".")
		if !ok || op != "eq" {
			return jsonResponse(req, http.StatusBadRequest, Error{Code: "PGRST100", Message: fmt.Sprintf("unsupported filter %q", vals[0])})
		}
		filters[col] = val
	}
	columns := query.Get("select")
	representation := strings.Contains(req.Header.Get("Prefer"), "return=representation")

	switch req.Method {
	case http.MethodGet:
		var out []map[string]any
		for _, r := range m.tables[table] {
			if matches(r, filters) {
				out = append(out, project(r, columns))
			}
		}
		return jsonResponse(req, http.StatusOK, nonNil(out))

	case http.MethodPost:
		rows, err := decodeRows(body)
		if err != nil {
			return jsonResponse(req, http.StatusBadRequest, Error{Code: "PGRST102", Message: err.Error()})
		}
		m.tables[table] = append(m.tables[table], rows...)
		if !representation {
			return emptyResponse(req, http.StatusCreated), nil
		}
		return jsonResponse(req, http.StatusCreated, rows)

	case http.MethodPatch:
		var values map[string]any
		if err := decodeJSON(body, &values); err != nil {
			return jsonResponse(req, http.StatusBadRequest, Error{Code: "PGRST102", Message: err.Error()})
		}
		var updated []map[string]any
		for _, r := range m.tables[table] {
			if !matches(r, filters) {
				continue
			}
			for k, v := range values {
				r[k] = v
			}
			updated = append(updated, project(r, columns))
		}
		if !representation {
			return emptyResponse(req, http.StatusNoContent), nil
		}
		return jsonResponse(req, http.StatusOK, nonNil(updated))
	}

	return jsonResponse(req, http.StatusMethodNotAllowed, Error{Message: "method not allowed"})
}

func matches(row map[string]any, filters map[string]string) bool {
	for col, want := range filters {
		if cellString(row[col]) != want {
			return false
		}
	}
	return true
}

func project(row map[string]any, columns string) map[string]any {
	out := make(map[string]any)
	if columns == "" || columns == "*" {
		for k, v := range row {
			out[k] = v
		}
		return out
	}
	for _, col := range strings.Split(columns, ",") {
		col = strings.TrimSpace(col)
		out[col] = row[col]
	}
	return out
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func decodeJSON(body []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(out)
}

func decodeRows(body []byte) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []map[string]any
		if err := decodeJSON(trimmed, &rows); err != nil {
			return nil, err
		}
		return rows, nil
	}
	var row map[string]any
	if err := decodeJSON(trimmed, &row); err != nil {
		return nil, err
	}
	return []map[string]any{row}, nil
}

// normalizeRow round-trips a seeded row through JSON so numbers are stored
// the same way as rows inserted over the wire.
func normalizeRow(r map[string]any) map[string]any {
	b, err := json.Marshal(r)
	if err != nil {
		return r
	}
	var out map[string]any
	if err := decodeJSON(b, &out); err != nil {
		return r
	}
	return out
}

func nonNil(rows []map[string]any) []map[string]any {
	if rows == nil {
		return []map[string]any{}
	}
	return rows
}

func jsonResponse(req *http.Request, status int, v any) (*http.Response, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	resp := emptyResponse(req, status)
	resp.Header.Set("Content-Type", "application/json")
	resp.Body = io.NopCloser(bytes.NewReader(b))
	resp.ContentLength = int64(len(b))
	return resp, nil
}

func emptyResponse(req *http.Request, status int) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Header:     make(http.Header),
		Body:       io.NopCloser(bytes.NewReader(nil)),
		Request:    req,
	}
}
