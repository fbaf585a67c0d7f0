package model

import "strings"

type StockLevel string

const (
	StockHigh   StockLevel = "High"
	StockMedium StockLevel = "Medium"
	StockLow    StockLevel = "Low"
	StockOut    StockLevel = "Out"
)

func (l StockLevel) Valid() bool {
	switch l {
	case StockHigh, StockMedium, StockLow, StockOut:
		return true
	}
	return false
}

// NeedsRestock reports whether the item belongs on the shopping list.
func (l StockLevel) NeedsRestock() bool {
	return l == StockLow || l == StockOut
}

// Next cycles High -> Medium -> Low -> Out -> High.
func (l StockLevel) Next() StockLevel {
	switch l {
	case StockHigh:
		return StockMedium
	case StockMedium:
		return StockLow
	case StockLow:
		return StockOut
	default:
		return StockHigh
	}
}

// ParseStockLevel matches level names case-insensitively.
func ParseStockLevel(raw string) (StockLevel, bool) {
	for _, l := range []StockLevel{StockHigh, StockMedium, StockLow, StockOut} {
		if strings.EqualFold(strings.TrimSpace(raw), string(l)) {
			return l, true
		}
	}
	return "", false
}

// DefaultGroceryCategory is used when an item is added without a category.
const DefaultGroceryCategory = "Other"

// GroceryItem is a pantry entry tracked by stock level.
type GroceryItem struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	StockLevel  StockLevel `json:"stockLevel"`
	Category    string     `json:"category"`
	IsEssential bool       `json:"isEssential"`
}

// Ingredient is a grocery candidate coming from a recipe plan.
type Ingredient struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	IsEssential bool   `json:"isEssential"`
}

// Recipe is one meal idea returned by the grocery planner.
type Recipe struct {
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	Source       string       `json:"source,omitempty"`
	SourceURL    string       `json:"sourceUrl,omitempty"`
	Instructions []string     `json:"instructions,omitempty"`
	Ingredients  []Ingredient `json:"ingredients"`
}

type GroceryPatch struct {
	Name        *string
	StockLevel  *StockLevel
	Category    *string
	IsEssential *bool
}
