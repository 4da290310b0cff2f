package supabase_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menuadmin/plugins/supabase"
)

type row struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestClient(t *testing.T) (*supabase.Client, *supabase.MockTransport) {
	t.Helper()
	mock := supabase.NewMockTransport()
	client := supabase.NewClient("https://example.supabase.co/", "anon-key", supabase.WithTransport(mock))
	return client, mock
}

func TestClientSendsAuthHeaders(t *testing.T) {
	client, mock := newTestClient(t)

	var rows []row
	require.NoError(t, client.Select(context.Background(), "restaurants", "id,name", nil, &rows))

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "anon-key", reqs[0].Header.Get("apikey"))
	assert.Equal(t, "Bearer anon-key", reqs[0].Header.Get("Authorization"))
	assert.Equal(t, "restaurants", reqs[0].Table)
	assert.Equal(t, "https://example.supabase.co", client.BaseURL)
}

func TestSelect(t *testing.T) {
	client, mock := newTestClient(t)
	mock.Seed("restaurants",
		map[string]any{"id": "r1", "name": "Joe's, Cafe", "menus": nil},
		map[string]any{"id": "r2", "name": "Pasta Place", "menus": nil},
	)

	t.Run("returns every row without filters", func(t *testing.T) {
		var rows []row
		require.NoError(t, client.Select(context.Background(), "restaurants", "id,name", nil, &rows))
		assert.Len(t, rows, 2)
	})

	t.Run("eq filter is encoded and matched exactly", func(t *testing.T) {
		var rows []row
		err := client.Select(context.Background(), "restaurants", "id", []supabase.Filter{supabase.Eq("name", "Joe's, Cafe")}, &rows)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "r1", rows[0].ID)
		assert.Empty(t, rows[0].Name, "only the selected column is returned")

		reqs := mock.Requests()
		q, err := url.ParseQuery(reqs[len(reqs)-1].Query)
		require.NoError(t, err)
		assert.Equal(t, "eq.Joe's, Cafe", q.Get("name"))
		assert.Equal(t, "id", q.Get("select"))
	})

	t.Run("match is case sensitive", func(t *testing.T) {
		var rows []row
		err := client.Select(context.Background(), "restaurants", "", []supabase.Filter{supabase.Eq("name", "pasta place")}, &rows)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestInsert(t *testing.T) {
	client, mock := newTestClient(t)

	err := client.Insert(context.Background(), "restaurant_dietary_options",
		map[string]string{"restaurant_id": "r1", "dietary_option_id": "d1"}, nil)
	require.NoError(t, err)

	rows := mock.Rows("restaurant_dietary_options")
	require.Len(t, rows, 1)
	assert.Equal(t, "r1", rows[0]["restaurant_id"])

	reqs := mock.Requests()
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "return=minimal", reqs[0].Header.Get("Prefer"))
}

func TestUpdate(t *testing.T) {
	client, mock := newTestClient(t)
	mock.Seed("restaurants", map[string]any{"id": 7, "name": "Pasta Place"})

	t.Run("returns updated rows", func(t *testing.T) {
		var rows []map[string]any
		err := client.Update(context.Background(), "restaurants",
			map[string]any{"menus": map[string]any{"lunch": []string{"soup"}}},
			[]supabase.Filter{supabase.Eq("name", "Pasta Place")}, &rows)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.NotNil(t, rows[0]["menus"])
	})

	t.Run("numeric ids match their string form", func(t *testing.T) {
		var rows []map[string]any
		err := client.Select(context.Background(), "restaurants", "id", []supabase.Filter{supabase.Eq("id", 7)}, &rows)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("no match yields an empty result", func(t *testing.T) {
		var rows []map[string]any
		err := client.Update(context.Background(), "restaurants",
			map[string]any{"menus": nil}, []supabase.Filter{supabase.Eq("name", "Nowhere")}, &rows)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("refuses an unfiltered update", func(t *testing.T) {
		err := client.Update(context.Background(), "restaurants", map[string]any{"menus": nil}, nil, nil)
		assert.ErrorIs(t, err, supabase.ErrUnfilteredUpdate)
	})
}

func TestErrorsAreDecoded(t *testing.T) {
	client, mock := newTestClient(t)
	mock.Fail(http.MethodGet, "dietary_options", http.StatusUnauthorized, supabase.Error{
		Code:    "42501",
		Message: "permission denied for table dietary_options",
		Hint:    "check the API key",
	})

	var rows []row
	err := client.Select(context.Background(), "dietary_options", "id,name", nil, &rows)
	require.Error(t, err)

	var apiErr *supabase.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.HTTPStatusCode)
	assert.Equal(t, "42501", apiErr.Code)
	assert.Equal(t, "check the API key", apiErr.Hint)
	assert.Contains(t, err.Error(), "permission denied")

	mock.ClearFailures()
	require.NoError(t, client.Select(context.Background(), "dietary_options", "id,name", nil, &rows))
}
