package entity

import (
	"time"

	"github.com/google/uuid"
)

type VerificationPurpose string

const (
	PurposeRegistration  VerificationPurpose = "registration"
	PurposePasswordReset VerificationPurpose = "password_reset"
)

// VerificationRecord is one issued email-verification or password-reset
// attempt. Only a bcrypt digest of the one-time token is stored; rows are
// never deleted so that used and expired attempts stay visible to
// throttling and auditing.
type VerificationRecord struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	Username  string              `gorm:"type:varchar(320);not null;index"`
	TokenHash string              `gorm:"type:text;not null"`
	Purpose   VerificationPurpose `gorm:"type:verification_purpose;not null"`

	ExpiresAt time.Time
	UsedAt    *time.Time

	CreatedAt time.Time
}

// Active reports whether the record can still be consumed.
func (r *VerificationRecord) Active(now time.Time) bool {
	return r.UsedAt == nil && now.Before(r.ExpiresAt)
}
