package db

import (
	"context"

	"menuadmin/model"
	"menuadmin/plugins/supabase"
)

// RESTStore implements Store over the hosted database's REST interface.
type RESTStore struct {
	client *supabase.Client
}

func NewRESTStore(client *supabase.Client) *RESTStore {
	return &RESTStore{client: client}
}

func (s *RESTStore) Close() error { return nil }

func (s *RESTStore) GetRestaurantMapByName(ctx context.Context) (map[string]model.ID, error) {
	var restaurants []model.Restaurant
	if err := s.client.Select(ctx, model.RestaurantsTable, "id,name", nil, &restaurants); err != nil {
		return nil, err
	}
	m := make(map[string]model.ID, len(restaurants))
	for _, r := range restaurants {
		m[r.Name] = r.ID
	}
	return m, nil
}

func (s *RESTStore) GetDietaryOptionMapByName(ctx context.Context) (map[string]model.ID, error) {
	var options []model.DietaryOption
	if err := s.client.Select(ctx, model.DietaryOptionsTable, "id,name", nil, &options); err != nil {
		return nil, err
	}
	m := make(map[string]model.ID, len(options))
	for _, o := range options {
		m[o.Name] = o.ID
	}
	return m, nil
}

func (s *RESTStore) ListRestaurantDietaryOptions(ctx context.Context) ([]model.RestaurantDietaryOption, error) {
	var links []model.RestaurantDietaryOption
	err := s.client.Select(ctx, model.RestaurantDietaryOptionsTable, "restaurant_id,dietary_option_id", nil, &links)
	return links, err
}

func (s *RESTStore) GetDietaryOptionIDsByRestaurant(ctx context.Context, restaurantID model.ID) ([]model.ID, error) {
	var links []model.RestaurantDietaryOption
	err := s.client.Select(ctx, model.RestaurantDietaryOptionsTable, "dietary_option_id",
		[]supabase.Filter{supabase.Eq("restaurant_id", restaurantID)}, &links)
	if err != nil {
		return nil, err
	}
	ids := make([]model.ID, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.DietaryOptionID)
	}
	return ids, nil
}

func (s *RESTStore) HasRestaurantDietaryOption(ctx context.Context, restaurantID, dietaryOptionID model.ID) (bool, error) {
	var links []model.RestaurantDietaryOption
	err := s.client.Select(ctx, model.RestaurantDietaryOptionsTable, "restaurant_id,dietary_option_id",
		[]supabase.Filter{
			supabase.Eq("restaurant_id", restaurantID),
			supabase.Eq("dietary_option_id", dietaryOptionID),
		}, &links)
	return len(links) > 0, err
}

func (s *RESTStore) CreateRestaurantDietaryOption(ctx context.Context, link model.RestaurantDietaryOption) error {
	return s.client.Insert(ctx, model.RestaurantDietaryOptionsTable, link, nil)
}

func (s *RESTStore) GetRestaurantIDByName(ctx context.Context, name string) (model.ID, error) {
	var restaurants []model.Restaurant
	err := s.client.Select(ctx, model.RestaurantsTable, "id",
		[]supabase.Filter{supabase.Eq("name", name)}, &restaurants)
	if err != nil {
		return "", err
	}
	if len(restaurants) == 0 {
		return "", ErrRestaurantNotFound
	}
	return restaurants[0].ID, nil
}

// UpdateRestaurantMenus counts the rows PostgREST hands back; an empty
// representation means no row matched.
func (s *RESTStore) UpdateRestaurantMenus(ctx context.Context, name string, menus model.MenuData) (int64, error) {
	var updated []model.Restaurant
	err := s.client.Update(ctx, model.RestaurantsTable,
		map[string]model.MenuData{"menus": menus},
		[]supabase.Filter{supabase.Eq("name", name)}, &updated)
	if err != nil {
		return 0, err
	}
	return int64(len(updated)), nil
}
