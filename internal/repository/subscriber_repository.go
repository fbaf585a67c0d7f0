package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"life-organizer/internal/model"
)

// SubscriberRepository tracks the chats that receive notifications.
type SubscriberRepository struct {
	db *gorm.DB
}

func NewSubscriberRepository(db *gorm.DB) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

// UpsertFromTelegram finds or creates a subscriber by TelegramID and refreshes its profile.
func (r *SubscriberRepository) UpsertFromTelegram(ctx context.Context, telegramID, chatID int64, firstName, username string) (*model.Subscriber, error) {
	var sub model.Subscriber
	db := r.db.WithContext(ctx)
	err := db.Where("telegram_id = ?", telegramID).First(&sub).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"chat_id":    chatID,
			"first_name": firstName,
			"username":   username,
		}
		if err := db.Model(&sub).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update subscriber: %w", err)
		}
		return &sub, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		sub = model.Subscriber{
			TelegramID: telegramID,
			ChatID:     chatID,
			FirstName:  firstName,
			Username:   username,
		}
		if err := db.Create(&sub).Error; err != nil {
			return nil, fmt.Errorf("create subscriber: %w", err)
		}
		return &sub, nil
	default:
		return nil, fmt.Errorf("find subscriber: %w", err)
	}
}

// SetMuted toggles push delivery for a chat.
func (r *SubscriberRepository) SetMuted(ctx context.Context, telegramID int64, muted bool) error {
	err := r.db.WithContext(ctx).Model(&model.Subscriber{}).
		Where("telegram_id = ?", telegramID).
		Update("muted", muted).Error
	if err != nil {
		return fmt.Errorf("mute subscriber: %w", err)
	}
	return nil
}

// ListActive returns subscribers that have not muted notifications.
func (r *SubscriberRepository) ListActive(ctx context.Context) ([]model.Subscriber, error) {
	var subs []model.Subscriber
	if err := r.db.WithContext(ctx).Where("muted = ?", false).Order("id ASC").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}
