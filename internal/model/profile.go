package model

import "time"

// Profile stores Telegram chat metadata for a planner session.
type Profile struct {
	ID         uint  `gorm:"primaryKey"`
	TelegramID int64 `gorm:"uniqueIndex"`
	FirstName  string
	LastName   string
	Username   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Setting is one durable key/value pair of a session's local storage.
type Setting struct {
	ID        uint   `gorm:"primaryKey"`
	Namespace string `gorm:"index:idx_setting_namespace_key,unique"`
	Name      string `gorm:"index:idx_setting_namespace_key,unique"`
	Value     string
	UpdatedAt time.Time
}
