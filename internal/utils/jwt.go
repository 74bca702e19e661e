package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

type JWTManager struct {
	Secret          []byte
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// The typ claim keeps the two token kinds from standing in for each
// other; both are HS256 under the same secret.
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type AccessClaims struct {
	UserID    string `json:"sub"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	Fresh     bool   `json:"fresh"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	UserID    string `json:"sub"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

func (m JWTManager) accessTTL() time.Duration {
	if m.AccessTokenTTL > 0 {
		return m.AccessTokenTTL
	}
	return 15 * time.Minute
}

func (m JWTManager) refreshTTL() time.Duration {
	if m.RefreshTokenTTL > 0 {
		return m.RefreshTokenTTL
	}
	return 30 * 24 * time.Hour
}

// IssueAccessToken mints a short-lived access token. Tokens minted at
// login carry fresh=true; tokens minted by a refresh carry fresh=false
// and are rejected by fresh-only operations.
func (m JWTManager) IssueAccessToken(userID, username, role string, fresh bool, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(m.accessTTL())
	claims := AccessClaims{
		UserID:    userID,
		Username:  username,
		Role:      role,
		Fresh:     fresh,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// IssueRefreshToken mints a long-lived refresh token. The returned
// issued-at stamp must be persisted as the user's refresh epoch; the
// token is only honoured while the two still match.
func (m JWTManager) IssueRefreshToken(userID string, now time.Time) (string, int64, time.Time, error) {
	expiresAt := now.Add(m.refreshTTL())
	issuedAt := now.Unix()
	claims := RefreshClaims{
		UserID:    userID,
		TokenType: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Unix(issuedAt, 0)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.Secret)
	if err != nil {
		return "", 0, time.Time{}, err
	}
	return signed, issuedAt, expiresAt, nil
}

func (m JWTManager) ParseAccessToken(tokenString string) (*AccessClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, m.keyFunc)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrExpiredToken
	}
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid || claims.TokenType != tokenTypeAccess {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseRefreshToken validates the signature and expiry and returns the
// claims, including the issued-at stamp checked against the refresh epoch.
func (m JWTManager) ParseRefreshToken(tokenString string) (*RefreshClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &RefreshClaims{}, m.keyFunc)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrExpiredToken
	}
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*RefreshClaims)
	if !ok || !parsed.Valid || claims.TokenType != tokenTypeRefresh {
		return nil, ErrInvalidToken
	}
	if claims.IssuedAt == nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (m JWTManager) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ErrInvalidToken
	}
	return m.Secret, nil
}
