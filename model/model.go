package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

const (
	RestaurantsTable              = "restaurants"
	DietaryOptionsTable           = "dietary_options"
	RestaurantDietaryOptionsTable = "restaurant_dietary_options"
)

// ID is an opaque row key. The hosted service may hand out bigint identities or
// uuids, so both JSON numbers and strings decode into it.
type ID string

// NewID returns a fresh uuid based key for rows created by the SQL backends.
func NewID() ID {
	return ID(uuid.NewString())
}

func (id ID) String() string {
	return string(id)
}

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*id = ""
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("cannot decode %s into ID: %w", b, err)
	}
	*id = ID(n.String())
	return nil
}

// MenuData is a menu document kept as the exact JSON bytes it was read from.
type MenuData []byte

func (m MenuData) MarshalJSON() ([]byte, error) {
	if len(m) == 0 {
		return []byte("null"), nil
	}
	return m, nil
}

func (m *MenuData) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*m = nil
		return nil
	}
	*m = append((*m)[:0], b...)
	return nil
}

func (m *MenuData) Scan(value interface{ any }) error {
	switch v := value.(type) {
	case nil:
		*m = nil
	case []byte:
		*m = append(MenuData(nil), v...)
	case string:
		*m = MenuData(v)
	default:
		return fmt.Errorf("cannot scan %T into MenuData", value)
	}
	return nil
}

func (m MenuData) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	if !json.Valid(m) {
		return nil, fmt.Errorf("invalid MenuData: not a JSON document")
	}
	return string(m), nil
}

// GormDBDataType stores menus as jsonb on Postgres and as plain text elsewhere,
// so SQLite never coerces numeric documents.
func (MenuData) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "text"
}

// A Restaurant is matched by its exact, case-sensitive Name. Menus is
// replaced wholesale by the importer.
type Restaurant struct {
	ID    ID       `gorm:"primaryKey;size:64" json:"id"`
	Name  string   `gorm:"uniqueIndex;not null;check:name <> ''" json:"name"`
	Menus MenuData `json:"menus,omitempty"`
}

func (Restaurant) TableName() string {
	return RestaurantsTable
}

func (r *Restaurant) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = NewID()
	}
	return nil
}

type DietaryOption struct {
	ID   ID     `gorm:"primaryKey;size:64" json:"id"`
	Name string `gorm:"uniqueIndex;not null;check:name <> ''" json:"name"`
}

func (DietaryOption) TableName() string {
	return DietaryOptionsTable
}

func (o *DietaryOption) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = NewID()
	}
	return nil
}

// RestaurantDietaryOption is a junction row. The pair is kept unique by
// checking before insert; the schema only indexes it.
type RestaurantDietaryOption struct {
	RestaurantID    ID `gorm:"size:64;not null;index:idx_restaurant_dietary_option" json:"restaurant_id"`
	DietaryOptionID ID `gorm:"size:64;not null;index:idx_restaurant_dietary_option" json:"dietary_option_id"`
}

func (RestaurantDietaryOption) TableName() string {
	return RestaurantDietaryOptionsTable
}
