package repository

import (
	"context"
	"errors"
	"time"

	"rerack/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	SetVerified(ctx context.Context, userID uuid.UUID) error
	SetPasswordHash(ctx context.Context, userID uuid.UUID, hash string) error
	SetRefreshIssuedAt(ctx context.Context, userID uuid.UUID, issuedAt *int64) error
	List(ctx context.Context, limit, offset int) ([]entity.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return dbFor(ctx, r.db).WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	err := dbFor(ctx, r.db).WithContext(ctx).
		Where("id = ? AND is_active = true", id).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	var user entity.User
	err := dbFor(ctx, r.db).WithContext(ctx).
		Where("username = ? AND is_active = true", username).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) SetVerified(ctx context.Context, userID uuid.UUID) error {
	now := time.Now()
	return dbFor(ctx, r.db).WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ? AND email_verified_at IS NULL", userID).
		Update("email_verified_at", &now).
		Error
}

func (r *userRepository) SetPasswordHash(ctx context.Context, userID uuid.UUID, hash string) error {
	return dbFor(ctx, r.db).WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", userID).
		Update("password_hash", &hash).
		Error
}

func (r *userRepository) SetRefreshIssuedAt(ctx context.Context, userID uuid.UUID, issuedAt *int64) error {
	return dbFor(ctx, r.db).WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", userID).
		Update("refresh_token_iat", issuedAt).
		Error
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]entity.User, error) {
	var users []entity.User
	query := dbFor(ctx, r.db).WithContext(ctx).Where("is_active = true").Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
