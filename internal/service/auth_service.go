package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"rerack/internal/entity"
	"rerack/internal/repository"
	"rerack/internal/utils"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Verified against a fixed digest when the username is unknown, so that
// login timing does not disclose whether an account exists.
const dummyPasswordHash = "$2a$10$CwTycUXWue0Thq9StjUM0uJ8yQbWc1x9uxw2sQ2sXUNx5x9xJ9F2S"

type AuthService struct {
	users         repository.UserRepository
	verifications repository.VerificationRepository
	devices       repository.DeviceRepository
	securityLogs  repository.SecurityLogRepository
	tx            repository.TxManager

	emailSender   EmailSender
	passwordHash  PasswordHasher
	sessionTokens SessionTokenIssuer
	clock         Clock
	config        AuthConfig
}

func NewAuthService(
	users repository.UserRepository,
	verifications repository.VerificationRepository,
	devices repository.DeviceRepository,
	securityLogs repository.SecurityLogRepository,
	tx repository.TxManager,
	emailSender EmailSender,
	passwordHash PasswordHasher,
	sessionTokens SessionTokenIssuer,
	clock Clock,
	config AuthConfig,
) *AuthService {
	return &AuthService{
		users:         users,
		verifications: verifications,
		devices:       devices,
		securityLogs:  securityLogs,
		tx:            tx,
		emailSender:   emailSender,
		passwordHash:  passwordHash,
		sessionTokens: sessionTokens,
		clock:         clock,
		config:        config,
	}
}

// Register creates an account and starts the email-verification flow.
// Duplicate usernames are disclosed on purpose; this is the one place
// where the enumeration-avoidance rule does not apply.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) error {
	if strings.TrimSpace(input.Username) == "" || strings.TrimSpace(input.Password) == "" {
		return ErrInvalidInput
	}

	username := utils.NormalizeEmail(input.Username)
	if !utils.PlausibleEmail(username) {
		return ErrUsernameNotEmail
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user != nil {
		if user.EmailVerifiedAt != nil {
			return ErrUsernameTaken
		}
		// An unverified duplicate adopts the newly supplied password before
		// the verification email is re-sent; an earlier registrant who never
		// proved ownership of the address must not keep its credentials.
		hash, err := s.passwordHash.Hash(input.Password)
		if err != nil {
			return err
		}
		if err := s.users.SetPasswordHash(ctx, user.ID, hash); err != nil {
			return err
		}
		return s.beginVerification(ctx, username, entity.PurposeRegistration)
	}

	hash, err := s.passwordHash.Hash(input.Password)
	if err != nil {
		return err
	}

	newUser := &entity.User{
		Username:     username,
		PasswordHash: &hash,
		Role:         entity.UserRoleUser,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, newUser); err != nil {
		return err
	}

	return s.beginVerification(ctx, username, entity.PurposeRegistration)
}

// RequestEmailVerification re-sends the registration verification email
// for an authenticated but still unverified user.
func (s *AuthService) RequestEmailVerification(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.EmailVerifiedAt != nil {
		return ErrAlreadyVerified
	}
	if err := s.beginVerification(ctx, user.Username, entity.PurposeRegistration); err != nil {
		return err
	}
	_ = s.logSecurity(ctx, &user.ID, nil, entity.VerificationSent, nil)
	return nil
}

// VerifyEmail consumes a registration token and marks the account verified.
func (s *AuthService) VerifyEmail(ctx context.Context, username string, token string) error {
	username = utils.NormalizeEmail(username)
	if !utils.PlausibleEmail(username) {
		return ErrInvalidInput
	}

	record, err := s.matchVerification(ctx, username, token, entity.PurposeRegistration)
	if err != nil {
		return err
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrVerificationNotFound
	}

	// Consuming the token and flipping the verified flag either both land
	// or neither does; a burned token with the flag still unset would
	// strand the account.
	err = s.inTransaction(ctx, func(ctx context.Context) error {
		used, err := s.verifications.MarkUsed(ctx, record.ID, s.now())
		if err != nil {
			return err
		}
		if !used {
			return ErrTokenUsed
		}
		return s.users.SetVerified(ctx, user.ID)
	})
	if err != nil {
		return err
	}

	_ = s.logSecurity(ctx, &user.ID, nil, entity.EmailVerified, nil)
	return nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if strings.TrimSpace(input.Username) == "" || strings.TrimSpace(input.Password) == "" {
		return nil, ErrInvalidInput
	}

	username := utils.NormalizeEmail(input.Username)
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == nil {
		_ = s.passwordHash.Verify(dummyPasswordHash, input.Password)
		_ = s.logSecurity(ctx, nil, input.IPAddress, entity.LoginFailed, map[string]any{"username": username})
		return nil, ErrInvalidCredentials
	}

	if !s.passwordHash.Verify(*user.PasswordHash, input.Password) {
		_ = s.logSecurity(ctx, &user.ID, input.IPAddress, entity.LoginFailed, map[string]any{"username": username})
		return nil, ErrInvalidCredentials
	}

	if user.EmailVerifiedAt == nil {
		return nil, ErrNotVerified
	}

	now := s.now()
	accessToken, accessExpiry, err := s.sessionTokens.IssueAccessToken(user, true, now)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshIAT, refreshExpiry, err := s.sessionTokens.IssueRefreshToken(user, now)
	if err != nil {
		return nil, err
	}

	// Stamping the fresh issued-at as the refresh epoch implicitly revokes
	// any refresh token from an earlier login.
	if err := s.users.SetRefreshIssuedAt(ctx, user.ID, &refreshIAT); err != nil {
		return nil, err
	}

	if input.DeviceToken != "" {
		if err := s.devices.Touch(ctx, user.ID, input.DeviceToken, now); err != nil {
			return nil, err
		}
	}

	_ = s.logSecurity(ctx, &user.ID, input.IPAddress, entity.LoginSuccess, nil)
	return &LoginResult{
		AccessToken:  TokenPayload{Token: accessToken, ExpiresAt: accessExpiry.Unix()},
		RefreshToken: TokenPayload{Token: refreshToken, ExpiresAt: refreshExpiry.Unix()},
	}, nil
}

// Refresh mints a new access token when the refresh token's issued-at
// stamp still equals the user's refresh epoch. The new access token is
// not fresh, so fresh-only operations will reject it. The epoch is never
// re-stamped here.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrInvalidInput
	}

	rawUserID, issuedAt, err := s.sessionTokens.ParseRefreshToken(refreshToken)
	if errors.Is(err, utils.ErrExpiredToken) {
		// An expired refresh token is a credential that no longer grants
		// access, not a malformed request.
		return nil, ErrRevokedToken
	}
	if err != nil {
		return nil, ErrMalformedToken
	}
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return nil, ErrMalformedToken
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrRevokedToken
	}
	if user.RefreshTokenIAT == nil || *user.RefreshTokenIAT != issuedAt {
		// A logout, password reset, or newer login happened since issuance.
		return nil, ErrRevokedToken
	}

	accessToken, accessExpiry, err := s.sessionTokens.IssueAccessToken(user, false, s.now())
	if err != nil {
		return nil, err
	}
	return &RefreshResult{
		AccessToken: TokenPayload{Token: accessToken, ExpiresAt: accessExpiry.Unix()},
	}, nil
}

// Logout clears the refresh epoch, invalidating every outstanding refresh
// token for the user. Calling it again is a no-op.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, ipAddress *string) error {
	if err := s.users.SetRefreshIssuedAt(ctx, userID, nil); err != nil {
		return err
	}
	_ = s.logSecurity(ctx, &userID, ipAddress, entity.Logout, nil)
	return nil
}

// RequestPasswordReset issues a reset token and emails it. Unknown and
// unverified usernames succeed silently so the endpoint cannot be used to
// probe for accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, username string) error {
	if strings.TrimSpace(username) == "" {
		return ErrInvalidInput
	}

	username = utils.NormalizeEmail(username)
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user == nil || user.EmailVerifiedAt == nil {
		return nil
	}

	if err := s.beginVerification(ctx, username, entity.PurposePasswordReset); err != nil {
		return err
	}
	_ = s.logSecurity(ctx, &user.ID, nil, entity.PasswordResetSent, nil)
	return nil
}

// ResetPassword consumes a reset token and installs the new password in
// the same operation. A second attempt with the same token fails with
// ErrTokenUsed. All outstanding refresh tokens are revoked.
func (s *AuthService) ResetPassword(ctx context.Context, username string, token string, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return ErrInvalidInput
	}

	username = utils.NormalizeEmail(username)
	record, err := s.matchVerification(ctx, username, token, entity.PurposePasswordReset)
	if err != nil {
		return err
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.EmailVerifiedAt == nil {
		return ErrNotVerified
	}

	hash, err := s.passwordHash.Hash(newPassword)
	if err != nil {
		return err
	}

	// The token burn, the new password, and the revocation of outstanding
	// refresh tokens are one atomic step. A crash between them must not
	// leave a consumed token with the old password still in place.
	err = s.inTransaction(ctx, func(ctx context.Context) error {
		used, err := s.verifications.MarkUsed(ctx, record.ID, s.now())
		if err != nil {
			return err
		}
		if !used {
			return ErrTokenUsed
		}
		if err := s.users.SetPasswordHash(ctx, user.ID, hash); err != nil {
			return err
		}
		return s.users.SetRefreshIssuedAt(ctx, user.ID, nil)
	})
	if err != nil {
		return err
	}

	_ = s.logSecurity(ctx, &user.ID, nil, entity.PasswordResetDone, nil)
	return nil
}

// ChangePassword replaces the password for an authenticated user. The
// handler only routes fresh access tokens here.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword string, newPassword string) error {
	if strings.TrimSpace(currentPassword) == "" || strings.TrimSpace(newPassword) == "" {
		return ErrInvalidInput
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.PasswordHash == nil || !s.passwordHash.Verify(*user.PasswordHash, currentPassword) {
		return ErrInvalidCredentials
	}

	hash, err := s.passwordHash.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.SetPasswordHash(ctx, user.ID, hash); err != nil {
		return err
	}

	_ = s.logSecurity(ctx, &user.ID, nil, entity.PasswordChanged, nil)
	return nil
}

func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) ListUsers(ctx context.Context, limit, offset int) ([]entity.User, error) {
	return s.users.List(ctx, limit, offset)
}

func (s *AuthService) ListDevices(ctx context.Context, userID uuid.UUID) ([]entity.Device, error) {
	return s.devices.ListByUser(ctx, userID)
}

// beginVerification throttles, mints and stores a verification record,
// and hands the plaintext token to the email boundary. The token never
// touches the store or the logs. Email dispatch failures surface to the
// caller and no record is persisted for an undelivered token.
func (s *AuthService) beginVerification(ctx context.Context, username string, purpose entity.VerificationPurpose) error {
	now := s.now()
	active, err := s.verifications.FindActive(ctx, username, now)
	if err != nil {
		return err
	}
	expirations := make([]time.Time, len(active))
	for i := range active {
		expirations[i] = active[i].ExpiresAt
	}
	if err := CheckIssuanceBudget(now, expirations, s.maxActiveVerifications()); err != nil {
		_ = s.logSecurity(ctx, nil, nil, entity.VerificationThrottle, map[string]any{"username": username})
		return err
	}

	token, err := utils.GenerateToken()
	if err != nil {
		return err
	}
	hash, err := utils.HashToken(token)
	if err != nil {
		return err
	}
	record := &entity.VerificationRecord{
		Username:  username,
		TokenHash: hash,
		Purpose:   purpose,
		ExpiresAt: now.Add(s.verificationTTL(purpose)),
	}

	if s.emailSender == nil {
		return ErrEmailSenderUnavailable
	}
	if purpose == entity.PurposePasswordReset {
		err = s.emailSender.SendPasswordResetEmail(ctx, username, token)
	} else {
		err = s.emailSender.SendVerificationEmail(ctx, username, token)
	}
	if err != nil {
		return err
	}

	return s.verifications.Create(ctx, record)
}

// matchVerification scans the username's records for one whose digest
// matches the presented token. Digests are salted, so every candidate has
// to be checked; there is no index on the plaintext.
func (s *AuthService) matchVerification(
	ctx context.Context,
	username string,
	token string,
	purpose entity.VerificationPurpose,
) (*entity.VerificationRecord, error) {
	if !utils.ValidTokenShape(token) {
		return nil, ErrMalformedToken
	}

	records, err := s.verifications.FindByPurpose(ctx, username, purpose)
	if err != nil {
		return nil, err
	}

	var match *entity.VerificationRecord
	for i := range records {
		if utils.VerifyToken(token, records[i].TokenHash) {
			match = &records[i]
			break
		}
	}
	if match == nil {
		return nil, ErrVerificationNotFound
	}
	if match.UsedAt != nil {
		return nil, ErrTokenUsed
	}
	if !s.now().Before(match.ExpiresAt) {
		return nil, ErrTokenExpired
	}
	return match, nil
}

func (s *AuthService) logSecurity(
	ctx context.Context,
	userID *uuid.UUID,
	ipAddress *string,
	action entity.SecurityAction,
	metadata map[string]any,
) error {
	if s.securityLogs == nil {
		return nil
	}
	var payload datatypes.JSON
	if metadata != nil {
		bytes, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		payload = datatypes.JSON(bytes)
	}

	log := &entity.SecurityLog{
		UserID:    userID,
		IPAddress: ipAddress,
		Action:    action,
		Metadata:  payload,
	}
	return s.securityLogs.Log(ctx, log)
}

func (s *AuthService) inTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.WithinTransaction(ctx, fn)
}

func (s *AuthService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}

func (s *AuthService) verificationTTL(purpose entity.VerificationPurpose) time.Duration {
	if purpose == entity.PurposePasswordReset {
		if s.config.ResetTokenTTL > 0 {
			return s.config.ResetTokenTTL
		}
		return 30 * time.Minute
	}
	if s.config.RegistrationTokenTTL > 0 {
		return s.config.RegistrationTokenTTL
	}
	return 24 * time.Hour
}

func (s *AuthService) maxActiveVerifications() int {
	if s.config.MaxActiveVerifications > 0 {
		return s.config.MaxActiveVerifications
	}
	return 3
}
