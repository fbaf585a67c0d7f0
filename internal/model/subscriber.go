package model

import "time"

// Subscriber is a Telegram chat that receives due-task pushes and digests.
type Subscriber struct {
	ID         uint  `gorm:"primaryKey"`
	TelegramID int64 `gorm:"uniqueIndex"`
	ChatID     int64 `gorm:"index"`
	FirstName  string
	Username   string
	Muted      bool `gorm:"default:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
