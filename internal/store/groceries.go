package store

import (
	"fmt"
	"strings"
	"sync"

	"life-organizer/internal/model"
)

const DefaultGrocerySlot = "life-os-grocery"

// GroceryStore owns the pantry.
type GroceryStore struct {
	mu    sync.Mutex
	items collection[model.GroceryItem]
	opts  options
}

func NewGroceryStore(kv KV, opts ...Option) *GroceryStore {
	o := buildOptions(DefaultGrocerySlot, opts)
	return &GroceryStore{
		items: loadCollection[model.GroceryItem](kv, o.slot, o.log),
		opts:  o,
	}
}

func (s *GroceryStore) indexOf(id string) int {
	for i, it := range s.items.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Add puts a fully stocked item in the pantry.
func (s *GroceryStore) Add(name, category string) (model.GroceryItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.GroceryItem{}, invalid("name", "must not be blank")
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = model.DefaultGroceryCategory
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := model.GroceryItem{
		ID:         s.opts.newID(),
		Name:       name,
		StockLevel: model.StockHigh,
		Category:   category,
	}
	s.items.items = append(s.items.items, item)
	return item, s.items.persist()
}

// SetStock changes an item's stock level.
func (s *GroceryStore) SetStock(id string, level model.StockLevel) error {
	return s.Update(id, model.GroceryPatch{StockLevel: &level})
}

func (s *GroceryStore) Update(id string, patch model.GroceryPatch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return invalid("name", "must not be blank")
	}
	if patch.StockLevel != nil && !patch.StockLevel.Valid() {
		return invalid("stockLevel", fmt.Sprintf("unknown level %q", *patch.StockLevel))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	it := &s.items.items[i]
	if patch.Name != nil {
		it.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.StockLevel != nil {
		it.StockLevel = *patch.StockLevel
	}
	if patch.Category != nil {
		it.Category = strings.TrimSpace(*patch.Category)
		if it.Category == "" {
			it.Category = model.DefaultGroceryCategory
		}
	}
	if patch.IsEssential != nil {
		it.IsEssential = *patch.IsEssential
	}
	return s.items.persist()
}

func (s *GroceryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items.removeWhere(func(it model.GroceryItem) bool { return it.ID == id }) == 0 {
		return nil
	}
	return s.items.persist()
}

// ImportIngredients adds planner suggestions as out-of-stock items. Names
// already in the pantry, or repeated in the batch, are skipped
// case-insensitively. It returns the items that were added.
func (s *GroceryStore) ImportIngredients(candidates []model.Ingredient) ([]model.GroceryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := make(map[string]bool, len(s.items.items)+len(candidates))
	for _, it := range s.items.items {
		known[strings.ToLower(strings.TrimSpace(it.Name))] = true
	}

	var added []model.GroceryItem
	for _, c := range candidates {
		name := strings.TrimSpace(c.Name)
		key := strings.ToLower(name)
		if name == "" || known[key] {
			continue
		}
		known[key] = true
		category := strings.TrimSpace(c.Category)
		if category == "" {
			category = model.DefaultGroceryCategory
		}
		added = append(added, model.GroceryItem{
			ID:          s.opts.newID(),
			Name:        name,
			StockLevel:  model.StockOut,
			Category:    category,
			IsEssential: c.IsEssential,
		})
	}
	if len(added) == 0 {
		return nil, nil
	}
	s.items.items = append(s.items.items, added...)
	return added, s.items.persist()
}

// ShoppingList lists the items that are Low or Out.
func (s *GroceryStore) ShoppingList() []model.GroceryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.filter(func(it model.GroceryItem) bool { return it.StockLevel.NeedsRestock() })
}

// ClearShoppingList removes every Low or Out item.
func (s *GroceryStore) ClearShoppingList() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := s.items.removeWhere(func(it model.GroceryItem) bool { return it.StockLevel.NeedsRestock() })
	if removed == 0 {
		return 0, nil
	}
	return removed, s.items.persist()
}

// ClearPantry removes every item.
func (s *GroceryStore) ClearPantry() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items.items = nil
	return s.items.persist()
}

func (s *GroceryStore) All() []model.GroceryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.snapshot()
}

func (s *GroceryStore) Get(id string) (model.GroceryItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items.items[i], true
	}
	return model.GroceryItem{}, false
}
