package service

type RegisterInput struct {
	Username string
	Password string
}

type LoginInput struct {
	Username    string
	Password    string
	DeviceToken string
	IPAddress   *string
}

// TokenPayload is one credential with its absolute expiration.
type TokenPayload struct {
	Token     string
	ExpiresAt int64
}

type LoginResult struct {
	AccessToken  TokenPayload
	RefreshToken TokenPayload
}

type RefreshResult struct {
	AccessToken TokenPayload
}
