package repository

import (
	"context"
	"time"

	"rerack/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VerificationRepository interface {
	Create(ctx context.Context, record *entity.VerificationRecord) error
	// FindByPurpose returns every record for the username and purpose,
	// including used and expired ones. Token digests are salted, so the
	// caller has to verify the presented token against each candidate.
	FindByPurpose(ctx context.Context, username string, purpose entity.VerificationPurpose) ([]entity.VerificationRecord, error)
	// FindActive returns the username's unused, unexpired records across
	// both purposes; issuance throttling counts them all.
	FindActive(ctx context.Context, username string, now time.Time) ([]entity.VerificationRecord, error)
	// MarkUsed flips used_at exactly once; a second call reports no match.
	MarkUsed(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
}

type verificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) VerificationRepository {
	return &verificationRepository{db: db}
}

func (r *verificationRepository) Create(ctx context.Context, record *entity.VerificationRecord) error {
	return dbFor(ctx, r.db).WithContext(ctx).Create(record).Error
}

func (r *verificationRepository) FindByPurpose(
	ctx context.Context,
	username string,
	purpose entity.VerificationPurpose,
) ([]entity.VerificationRecord, error) {
	var records []entity.VerificationRecord
	err := dbFor(ctx, r.db).WithContext(ctx).
		Where("username = ? AND purpose = ?", username, purpose).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *verificationRepository) FindActive(
	ctx context.Context,
	username string,
	now time.Time,
) ([]entity.VerificationRecord, error) {
	var records []entity.VerificationRecord
	err := dbFor(ctx, r.db).WithContext(ctx).
		Where("username = ? AND used_at IS NULL AND expires_at > ?", username, now).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *verificationRepository) MarkUsed(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	result := dbFor(ctx, r.db).WithContext(ctx).
		Model(&entity.VerificationRecord{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", &now)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
