package db

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menuadmin/model"
	"menuadmin/plugins/supabase"
)

func setupRESTStore(t *testing.T) (*RESTStore, *supabase.MockTransport) {
	t.Helper()
	mock := supabase.NewMockTransport()
	mock.Seed(model.RestaurantsTable,
		map[string]any{"id": 1, "name": "Pizza Place", "menus": nil},
		map[string]any{"id": 2, "name": "Sushi Bar", "menus": nil},
	)
	mock.Seed(model.DietaryOptionsTable,
		map[string]any{"id": 10, "name": "Vegan"},
		map[string]any{"id": 11, "name": "Halal"},
	)
	mock.Seed(model.RestaurantDietaryOptionsTable,
		map[string]any{"restaurant_id": 1, "dietary_option_id": 10},
	)
	client := supabase.NewClient("https://example.supabase.co", "anon-key", supabase.WithTransport(mock))
	return NewRESTStore(client), mock
}

func TestRESTStoreNameMaps(t *testing.T) {
	store, _ := setupRESTStore(t)
	ctx := context.Background()

	restaurants, err := store.GetRestaurantMapByName(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]model.ID{"Pizza Place": "1", "Sushi Bar": "2"}, restaurants)

	options, err := store.GetDietaryOptionMapByName(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]model.ID{"Vegan": "10", "Halal": "11"}, options)
}

func TestRESTStoreLinks(t *testing.T) {
	store, mock := setupRESTStore(t)
	ctx := context.Background()

	links, err := store.ListRestaurantDietaryOptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.RestaurantDietaryOption{{RestaurantID: "1", DietaryOptionID: "10"}}, links)

	ids, err := store.GetDietaryOptionIDsByRestaurant(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []model.ID{"10"}, ids)

	ok, err := store.HasRestaurantDietaryOption(ctx, "1", "10")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.HasRestaurantDietaryOption(ctx, "2", "10")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, AssociateDietaryOption(ctx, store, model.RestaurantDietaryOption{RestaurantID: "2", DietaryOptionID: "11"}))
	assert.ErrorIs(t, AssociateDietaryOption(ctx, store, model.RestaurantDietaryOption{RestaurantID: "1", DietaryOptionID: "10"}), ErrAlreadyAssociated)

	rows := mock.Rows(model.RestaurantDietaryOptionsTable)
	require.Len(t, rows, 2)
	assert.Equal(t, "2", rows[1]["restaurant_id"])
	assert.Equal(t, "11", rows[1]["dietary_option_id"])
}

func TestRESTStoreMenus(t *testing.T) {
	store, mock := setupRESTStore(t)
	ctx := context.Background()

	id, err := store.GetRestaurantIDByName(ctx, "Sushi Bar")
	require.NoError(t, err)
	assert.Equal(t, model.ID("2"), id)

	_, err = store.GetRestaurantIDByName(ctx, "Nowhere")
	assert.ErrorIs(t, err, ErrRestaurantNotFound)

	n, err := store.UpdateRestaurantMenus(ctx, "Sushi Bar", model.MenuData(`{"rolls":["California"]}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	for _, r := range mock.Rows(model.RestaurantsTable) {
		if r["name"] == "Sushi Bar" {
			assert.Equal(t, map[string]any{"rolls": []any{"California"}}, r["menus"])
		} else {
			assert.Nil(t, r["menus"])
		}
	}

	n, err = store.UpdateRestaurantMenus(ctx, "Nowhere", model.MenuData(`{}`))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRESTStoreErrors(t *testing.T) {
	store, mock := setupRESTStore(t)
	mock.Fail(http.MethodPost, model.RestaurantDietaryOptionsTable, http.StatusForbidden,
		supabase.Error{Code: "42501", Message: "permission denied for table restaurant_dietary_options"})

	err := AssociateDietaryOption(context.Background(), store, model.RestaurantDietaryOption{RestaurantID: "2", DietaryOptionID: "10"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adding relationship")

	var apiErr *supabase.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.HTTPStatusCode)
	assert.Equal(t, "42501", apiErr.Code)
}
