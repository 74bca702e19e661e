package dto

import (
	"time"

	"rerack/internal/entity"
)

type RegisterRequest struct {
	Username string `json:"username" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type VerifyEmailRequest struct {
	Username string `json:"username" validate:"required,email"`
	Token    string `json:"token" validate:"required"`
}

type LoginRequest struct {
	Username    string `json:"username" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	DeviceToken string `json:"device_token" validate:"omitempty"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

type LoginResponse struct {
	AccessToken  TokenResponse  `json:"access_token"`
	RefreshToken *TokenResponse `json:"refresh_token,omitempty"`
}

type PasswordForgotRequest struct {
	Username string `json:"username" validate:"required,email"`
}

type PasswordResetRequest struct {
	Username    string `json:"username" validate:"required,email"`
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

type UserResponse struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	Role            string     `json:"role"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func UserResponseFromEntity(user *entity.User) UserResponse {
	return UserResponse{
		ID:              user.ID.String(),
		Username:        user.Username,
		Role:            string(user.Role),
		EmailVerifiedAt: user.EmailVerifiedAt,
		IsActive:        user.IsActive,
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}
}

func UserResponsesFromEntities(users []entity.User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, UserResponseFromEntity(&users[i]))
	}
	return responses
}

type DeviceResponse struct {
	ID          string    `json:"id"`
	DeviceToken string    `json:"device_token"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

func DeviceResponsesFromEntities(devices []entity.Device) []DeviceResponse {
	responses := make([]DeviceResponse, 0, len(devices))
	for _, device := range devices {
		responses = append(responses, DeviceResponse{
			ID:          device.ID.String(),
			DeviceToken: device.DeviceToken,
			RefreshedAt: device.RefreshedAt,
		})
	}
	return responses
}
