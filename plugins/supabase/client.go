package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	restPath       = "/rest/v1/"
	defaultTimeout = 30 * time.Second
)

var ErrUnfilteredUpdate = errors.New("supabase: update requires at least one filter")

// Client talks to the PostgREST endpoint of a hosted Supabase project. Every
// call is a single blocking HTTP request; there are no retries.
type Client struct {
	BaseURL string
	APIKey  string

	httpClient *http.Client
}

type ClientOption func(*clientOptions)

type clientOptions struct {
	transport http.RoundTripper
	timeout   time.Duration
}

// WithTransport replaces the network transport under the auth layers.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(o *clientOptions) { o.transport = rt }
}

func WithTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) { o.timeout = d }
}

// NewClient returns a Client that sends apiKey both as the apikey header and
// as a bearer token, which is what the Supabase gateway expects.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	o := clientOptions{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	base := &http.Client{Transport: &apiKeyTransport{apiKey: apiKey, base: o.transport}}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey, TokenType: "Bearer"})
	hc := oauth2.NewClient(ctx, ts)
	hc.Timeout = o.timeout

	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		httpClient: hc,
	}
}

// Filter is an equality condition on a single column.
type Filter struct {
	Column string
	Value  string
}

func Eq(column string, value any) Filter {
	return Filter{Column: column, Value: fmt.Sprint(value)}
}

// Select GETs rows of table matching every filter and decodes the JSON array
// into out. columns is a PostgREST select list such as "id,name"; empty means "*".
func (c *Client) Select(ctx context.Context, table, columns string, filters []Filter, out any) error {
	if columns == "" {
		columns = "*"
	}
	endpoint := c.tableURL(table, columns, filters)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, out)
}

// Insert POSTs row (a struct, map or slice of them) into table. When out is
// non-nil the inserted rows are returned and decoded into it.
func (c *Client) Insert(ctx context.Context, table string, row any, out any) error {
	body, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tableURL(table, "", nil), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", preferReturn(out))

	return c.do(req, out)
}

// Update PATCHes values onto every row of table matching filters and decodes
// the updated rows into out. An empty out slice means nothing matched.
func (c *Client) Update(ctx context.Context, table string, values any, filters []Filter, out any) error {
	if len(filters) == 0 {
		return ErrUnfilteredUpdate
	}
	body, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode body: %w", err)
	}
	columns := ""
	if out != nil {
		columns = "*"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.tableURL(table, columns, filters), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", preferReturn(out))

	return c.do(req, out)
}

func (c *Client) tableURL(table, columns string, filters []Filter) string {
	q := url.Values{}
	if columns != "" {
		q.Set("select", columns)
	}
	for _, f := range filters {
		q.Add(f.Column, "eq."+f.Value)
	}
	endpoint := c.BaseURL + restPath + url.PathEscape(table)
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	return endpoint
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: request failed: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(resp, body)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func preferReturn(out any) string {
	if out == nil {
		return "return=minimal"
	}
	return "return=representation"
}

type apiKeyTransport struct {
	apiKey string
	base   http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("apikey", t.apiKey)
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(r)
}
