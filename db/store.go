package db

import (
	"context"
	"errors"
	"fmt"

	"menuadmin/model"
)

var (
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrAlreadyAssociated  = errors.New("dietary option is already associated with restaurant")
)

// Store is the equality-filtered select/insert/update surface both tools
// need. Implementations: SQLStore (gorm) and RESTStore (Supabase PostgREST).
type Store interface {
	GetRestaurantMapByName(ctx context.Context) (map[string]model.ID, error)
	GetDietaryOptionMapByName(ctx context.Context) (map[string]model.ID, error)
	ListRestaurantDietaryOptions(ctx context.Context) ([]model.RestaurantDietaryOption, error)
	GetDietaryOptionIDsByRestaurant(ctx context.Context, restaurantID model.ID) ([]model.ID, error)
	HasRestaurantDietaryOption(ctx context.Context, restaurantID, dietaryOptionID model.ID) (bool, error)
	CreateRestaurantDietaryOption(ctx context.Context, link model.RestaurantDietaryOption) error
	GetRestaurantIDByName(ctx context.Context, name string) (model.ID, error)
	UpdateRestaurantMenus(ctx context.Context, name string, menus model.MenuData) (int64, error)
	Close() error
}

// AssociateDietaryOption inserts link unless the pair already exists, in
// which case it returns ErrAlreadyAssociated and writes nothing.
func AssociateDietaryOption(ctx context.Context, s Store, link model.RestaurantDietaryOption) error {
	exists, err := s.HasRestaurantDietaryOption(ctx, link.RestaurantID, link.DietaryOptionID)
	if err != nil {
		return fmt.Errorf("checking existing relationship: %w", err)
	}
	if exists {
		return ErrAlreadyAssociated
	}
	if err := s.CreateRestaurantDietaryOption(ctx, link); err != nil {
		return fmt.Errorf("adding relationship: %w", err)
	}
	return nil
}
