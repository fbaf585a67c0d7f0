package model

import "time"

// Slot is one named durable value, holding a whole JSON-encoded collection.
type Slot struct {
	Name      string `gorm:"primaryKey"`
	Value     []byte
	UpdatedAt time.Time
}
