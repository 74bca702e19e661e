package repository

import (
	"context"
	"errors"
	"time"

	"rerack/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeviceRepository interface {
	Touch(ctx context.Context, userID uuid.UUID, deviceToken string, now time.Time) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Device, error)
}

type deviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) DeviceRepository {
	return &deviceRepository{db: db}
}

// Touch registers the device token for the user, or refreshes its
// last-seen time if it is already registered.
func (r *deviceRepository) Touch(ctx context.Context, userID uuid.UUID, deviceToken string, now time.Time) error {
	var device entity.Device
	err := dbFor(ctx, r.db).WithContext(ctx).
		Where("user_id = ? AND device_token = ?", userID, deviceToken).
		First(&device).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dbFor(ctx, r.db).WithContext(ctx).Create(&entity.Device{
			UserID:      userID,
			DeviceToken: deviceToken,
			RefreshedAt: now,
		}).Error
	}
	if err != nil {
		return err
	}

	return dbFor(ctx, r.db).WithContext(ctx).
		Model(&entity.Device{}).
		Where("id = ?", device.ID).
		Update("refreshed_at", now).
		Error
}

func (r *deviceRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Device, error) {
	var devices []entity.Device
	err := dbFor(ctx, r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("refreshed_at DESC").
		Find(&devices).Error
	if err != nil {
		return nil, err
	}
	return devices, nil
}
