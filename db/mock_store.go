package db

import (
	"context"
	"fmt"
	"sync"

	"menuadmin/model"
)

// MockStore is an in-memory Store for testing
type MockStore struct {
	mu             sync.Mutex
	restaurants    map[string]model.ID // name -> id
	dietaryOptions map[string]model.ID // name -> id
	menus          map[string]model.MenuData
	links          []model.RestaurantDietaryOption
	nextID         int

	// Errors maps a Store method name to the error it should return.
	Errors map[string]error

	// Capture calls for verification
	linksCreated []model.RestaurantDietaryOption
	menusUpdated []string
	closed       bool
}

// NewMockStore creates an empty mock store
func NewMockStore() *MockStore {
	return &MockStore{
		restaurants:    make(map[string]model.ID),
		dietaryOptions: make(map[string]model.ID),
		menus:          make(map[string]model.MenuData),
		Errors:         make(map[string]error),
		nextID:         1,
	}
}

func (m *MockStore) newID() model.ID {
	id := model.ID(fmt.Sprintf("%d", m.nextID))
	m.nextID++
	return id
}

// AddRestaurant registers a restaurant and returns its ID
func (m *MockStore) AddRestaurant(name string) model.ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.newID()
	m.restaurants[name] = id
	return id
}

// AddDietaryOption registers a dietary option and returns its ID
func (m *MockStore) AddDietaryOption(name string) model.ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.newID()
	m.dietaryOptions[name] = id
	return id
}

// AddLink stores an existing association without recording it as created.
func (m *MockStore) AddLink(restaurantID, dietaryOptionID model.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = append(m.links, model.RestaurantDietaryOption{RestaurantID: restaurantID, DietaryOptionID: dietaryOptionID})
}

func (m *MockStore) SetError(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[method] = err
}

func (m *MockStore) err(method string) error {
	return m.Errors[method]
}

func (m *MockStore) GetRestaurantMapByName(context.Context) (map[string]model.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("GetRestaurantMapByName"); err != nil {
		return nil, err
	}
	out := make(map[string]model.ID, len(m.restaurants))
	for k, v := range m.restaurants {
		out[k] = v
	}
	return out, nil
}

func (m *MockStore) GetDietaryOptionMapByName(context.Context) (map[string]model.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("GetDietaryOptionMapByName"); err != nil {
		return nil, err
	}
	out := make(map[string]model.ID, len(m.dietaryOptions))
	for k, v := range m.dietaryOptions {
		out[k] = v
	}
	return out, nil
}

func (m *MockStore) ListRestaurantDietaryOptions(context.Context) ([]model.RestaurantDietaryOption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("ListRestaurantDietaryOptions"); err != nil {
		return nil, err
	}
	return append([]model.RestaurantDietaryOption(nil), m.links...), nil
}

func (m *MockStore) GetDietaryOptionIDsByRestaurant(_ context.Context, restaurantID model.ID) ([]model.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("GetDietaryOptionIDsByRestaurant"); err != nil {
		return nil, err
	}
	var ids []model.ID
	for _, l := range m.links {
		if l.RestaurantID == restaurantID {
			ids = append(ids, l.DietaryOptionID)
		}
	}
	return ids, nil
}

func (m *MockStore) HasRestaurantDietaryOption(_ context.Context, restaurantID, dietaryOptionID model.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("HasRestaurantDietaryOption"); err != nil {
		return false, err
	}
	for _, l := range m.links {
		if l.RestaurantID == restaurantID && l.DietaryOptionID == dietaryOptionID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockStore) CreateRestaurantDietaryOption(_ context.Context, link model.RestaurantDietaryOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("CreateRestaurantDietaryOption"); err != nil {
		return err
	}
	m.links = append(m.links, link)
	m.linksCreated = append(m.linksCreated, link)
	return nil
}

func (m *MockStore) GetRestaurantIDByName(_ context.Context, name string) (model.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("GetRestaurantIDByName"); err != nil {
		return "", err
	}
	id, ok := m.restaurants[name]
	if !ok {
		return "", ErrRestaurantNotFound
	}
	return id, nil
}

func (m *MockStore) UpdateRestaurantMenus(_ context.Context, name string, menus model.MenuData) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.menusUpdated = append(m.menusUpdated, name)
	if err := m.err("UpdateRestaurantMenus"); err != nil {
		return 0, err
	}
	if _, ok := m.restaurants[name]; !ok {
		return 0, nil
	}
	m.menus[name] = append(model.MenuData(nil), menus...)
	return 1, nil
}

func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Menu returns the stored menus document for a restaurant
func (m *MockStore) Menu(name string) model.MenuData {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.menus[name]
}

// Links returns every association, seeded and created
func (m *MockStore) Links() []model.RestaurantDietaryOption {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.RestaurantDietaryOption(nil), m.links...)
}

// LinksCreated returns the associations inserted through the Store
func (m *MockStore) LinksCreated() []model.RestaurantDietaryOption {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.RestaurantDietaryOption(nil), m.linksCreated...)
}

// MenusUpdated returns every name passed to UpdateRestaurantMenus, in order
func (m *MockStore) MenusUpdated() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.menusUpdated...)
}

func (m *MockStore) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
