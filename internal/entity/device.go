package entity

import (
	"time"

	"github.com/google/uuid"
)

// Device is a push-notification device token registered at login.
type Device struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index"`
	User   User      `gorm:"constraint:OnDelete:CASCADE"`

	DeviceToken string `gorm:"type:varchar(255);not null"`

	RefreshedAt time.Time
	CreatedAt   time.Time
}
