package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"life-organizer/internal/model"
)

// Slot names for the persisted collections.
const (
	SlotTasks       = "omni-tasks"
	SlotHabits      = "omni-habits"
	SlotGroceries   = "life-os-grocery"
	SlotExpenses    = "omni-expenses"
	SlotPredictions = "life-os-predictions"
)

// SlotRepository is a durable key-value store: one row per named slot.
type SlotRepository struct {
	db *gorm.DB
}

func NewSlotRepository(db *gorm.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// Get returns the slot value; ok is false when the slot was never written.
func (r *SlotRepository) Get(key string) ([]byte, bool, error) {
	var slot model.Slot
	err := r.db.Where("name = ?", key).First(&slot).Error
	switch {
	case err == nil:
		return slot.Value, true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("get slot %q: %w", key, err)
	}
}

// Set replaces the slot value, creating the slot when needed.
func (r *SlotRepository) Set(key string, value []byte) error {
	slot := model.Slot{Name: key, Value: value, UpdatedAt: time.Now()}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&slot).Error
	if err != nil {
		return fmt.Errorf("set slot %q: %w", key, err)
	}
	return nil
}

// Delete removes the slot. Deleting a missing slot is not an error.
func (r *SlotRepository) Delete(key string) error {
	if err := r.db.Where("name = ?", key).Delete(&model.Slot{}).Error; err != nil {
		return fmt.Errorf("delete slot %q: %w", key, err)
	}
	return nil
}
