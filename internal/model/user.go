package model

import "time"

// User stores Telegram user metadata.
type User struct {
	ID         uint  `gorm:"primaryKey"`
	TelegramID int64 `gorm:"uniqueIndex"`
	FirstName  string
	LastName   string
	Username   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Profile    *Profile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// DefaultTimeZone is used for profiles provisioned without an explicit zone.
const DefaultTimeZone = "UTC"

// Profile holds per-user settings. It is provisioned together with the user.
type Profile struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"uniqueIndex"`
	TimeZone  string `gorm:"size:64;default:UTC"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
