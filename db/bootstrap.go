package db

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"menuadmin/model"
)

// DefaultDietaryOptions are inserted by Bootstrap when seeding.
var DefaultDietaryOptions = []string{
	"Dairy-Free",
	"Gluten-Free",
	"Halal",
	"Keto",
	"Kosher",
	"Nut-Free",
	"Vegan",
	"Vegetarian",
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Restaurant{},
		&model.DietaryOption{},
		&model.RestaurantDietaryOption{},
	); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}
	return nil
}

// Bootstrap creates the schema and, when seed is set, loads the default
// dietary options plus one restaurant per name in restaurants. Existing rows
// are left alone so it can be rerun.
func Bootstrap(db *gorm.DB, seed bool, restaurants []string, log *zap.SugaredLogger) error {
	if err := Migrate(db); err != nil {
		return err
	}

	if !seed {
		log.Info("bootstrap: database schema created but no seed data loaded")
		return nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, name := range DefaultDietaryOptions {
			option := model.DietaryOption{Name: name}
			if err := tx.FirstOrCreate(&option, model.DietaryOption{Name: name}).Error; err != nil {
				return fmt.Errorf("bootstrap: failed to insert dietary option %s: %w", name, err)
			}
		}
		for _, name := range restaurants {
			restaurant := model.Restaurant{Name: name}
			if err := tx.FirstOrCreate(&restaurant, model.Restaurant{Name: name}).Error; err != nil {
				return fmt.Errorf("bootstrap: failed to insert restaurant %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Infow("bootstrap: seed data loaded",
		"dietary_options", len(DefaultDietaryOptions),
		"restaurants", len(restaurants))
	return nil
}
