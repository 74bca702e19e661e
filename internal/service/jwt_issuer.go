package service

import (
	"time"

	"rerack/internal/entity"
	"rerack/internal/utils"
)

// SessionTokenIssuer mints and decodes the session credential pair.
type SessionTokenIssuer interface {
	IssueAccessToken(user *entity.User, fresh bool, now time.Time) (token string, expiresAt time.Time, err error)
	IssueRefreshToken(user *entity.User, now time.Time) (token string, issuedAt int64, expiresAt time.Time, err error)
	ParseRefreshToken(token string) (userID string, issuedAt int64, err error)
}

type JWTSessionIssuer struct {
	Manager *utils.JWTManager
}

func (j JWTSessionIssuer) IssueAccessToken(user *entity.User, fresh bool, now time.Time) (string, time.Time, error) {
	if j.Manager == nil {
		return "", time.Time{}, utils.ErrInvalidToken
	}
	return j.Manager.IssueAccessToken(user.ID.String(), user.Username, string(user.Role), fresh, now)
}

func (j JWTSessionIssuer) IssueRefreshToken(user *entity.User, now time.Time) (string, int64, time.Time, error) {
	if j.Manager == nil {
		return "", 0, time.Time{}, utils.ErrInvalidToken
	}
	return j.Manager.IssueRefreshToken(user.ID.String(), now)
}

func (j JWTSessionIssuer) ParseRefreshToken(token string) (string, int64, error) {
	if j.Manager == nil {
		return "", 0, utils.ErrInvalidToken
	}
	claims, err := j.Manager.ParseRefreshToken(token)
	if err != nil {
		return "", 0, err
	}
	return claims.UserID, claims.IssuedAt.Unix(), nil
}
