package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"menuadmin/model"
)

type SQLStore struct {
	db *gorm.DB
}

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Ping verifies the underlying database connection is healthy.
func (s *SQLStore) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sql store is not initialized")
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetRestaurantMapByName returns restaurant IDs keyed by name
func (s *SQLStore) GetRestaurantMapByName(ctx context.Context) (map[string]model.ID, error) {
	var restaurants []model.Restaurant
	if err := s.db.WithContext(ctx).Select("id", "name").Find(&restaurants).Error; err != nil {
		return nil, err
	}
	m := make(map[string]model.ID, len(restaurants))
	for _, r := range restaurants {
		m[r.Name] = r.ID
	}
	return m, nil
}

// GetDietaryOptionMapByName returns dietary option IDs keyed by name
func (s *SQLStore) GetDietaryOptionMapByName(ctx context.Context) (map[string]model.ID, error) {
	var options []model.DietaryOption
	if err := s.db.WithContext(ctx).Find(&options).Error; err != nil {
		return nil, err
	}
	m := make(map[string]model.ID, len(options))
	for _, o := range options {
		m[o.Name] = o.ID
	}
	return m, nil
}

func (s *SQLStore) ListRestaurantDietaryOptions(ctx context.Context) ([]model.RestaurantDietaryOption, error) {
	var links []model.RestaurantDietaryOption
	err := s.db.WithContext(ctx).Find(&links).Error
	return links, err
}

func (s *SQLStore) GetDietaryOptionIDsByRestaurant(ctx context.Context, restaurantID model.ID) ([]model.ID, error) {
	var links []model.RestaurantDietaryOption
	err := s.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	ids := make([]model.ID, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.DietaryOptionID)
	}
	return ids, nil
}

func (s *SQLStore) HasRestaurantDietaryOption(ctx context.Context, restaurantID, dietaryOptionID model.ID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.RestaurantDietaryOption{}).
		Where("restaurant_id = ? AND dietary_option_id = ?", restaurantID, dietaryOptionID).
		Count(&count).Error
	return count > 0, err
}

func (s *SQLStore) CreateRestaurantDietaryOption(ctx context.Context, link model.RestaurantDietaryOption) error {
	return s.db.WithContext(ctx).Create(&link).Error
}

// GetRestaurantIDByName looks a restaurant up by exact name and returns
// ErrRestaurantNotFound when there is no such row.
func (s *SQLStore) GetRestaurantIDByName(ctx context.Context, name string) (model.ID, error) {
	var r model.Restaurant
	err := s.db.WithContext(ctx).
		Select("id").
		Where("name = ?", name).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrRestaurantNotFound
	}
	if err != nil {
		return "", err
	}
	return r.ID, nil
}

// UpdateRestaurantMenus replaces the menus of the restaurant called name and
// reports how many rows were changed.
func (s *SQLStore) UpdateRestaurantMenus(ctx context.Context, name string, menus model.MenuData) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&model.Restaurant{}).
		Where("name = ?", name).
		Update("menus", menus)
	return res.RowsAffected, res.Error
}
