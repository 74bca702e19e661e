package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v2"
)

// ResendEmailSender delivers verification and password-reset emails
// through the Resend API. Send failures are returned to the caller as-is;
// retrying is the transport's concern, not this service's.
type ResendEmailSender struct {
	Client     *resend.Client
	From       string
	AppBaseURL string
	VerifyPath string
	ResetPath  string
}

func NewResendEmailSender(apiKey string, from string, appBaseURL string) *ResendEmailSender {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(from) == "" {
		return &ResendEmailSender{}
	}
	return &ResendEmailSender{
		Client:     resend.NewClient(apiKey),
		From:       from,
		AppBaseURL: strings.TrimRight(appBaseURL, "/"),
		VerifyPath: "/api/verify",
		ResetPath:  "/reset-password",
	}
}

func (s *ResendEmailSender) SendVerificationEmail(ctx context.Context, email string, token string) error {
	if s.Client == nil {
		return ErrEmailSenderUnavailable
	}
	link := s.buildURL(s.VerifyPath, email, token)
	text := fmt.Sprintf(
		"Welcome to ReRack. Please follow the link to complete your account registration.\n\n%s\n\n"+
			"If you did not register an account with ReRack, then please disregard this email.",
		link,
	)
	html := fmt.Sprintf(
		"<p>Welcome to ReRack. Please follow the link to complete your account registration.</p>"+
			"<p><a href=%q>Verify Email</a></p>"+
			"<p>If you did not register an account with ReRack, then please disregard this email.</p>",
		link,
	)
	return s.send(ctx, email, "ReRack Email Verification", html, text)
}

func (s *ResendEmailSender) SendPasswordResetEmail(ctx context.Context, email string, token string) error {
	if s.Client == nil {
		return ErrEmailSenderUnavailable
	}
	link := s.buildURL(s.ResetPath, email, token)
	text := fmt.Sprintf(
		"Password reset requested for ReRack user %s. Please follow the link to reset your password.\n\n%s\n\n"+
			"If you did not request a password reset, then please disregard this email.",
		email, link,
	)
	html := fmt.Sprintf(
		"<p>Password reset requested for ReRack user %s. Please follow the link to reset your password.</p>"+
			"<p><a href=%q>Reset Password</a></p>"+
			"<p>If you did not request a password reset, then please disregard this email.</p>",
		email, link,
	)
	return s.send(ctx, email, "ReRack Password Reset", html, text)
}

func (s *ResendEmailSender) buildURL(path string, username string, token string) string {
	query := url.Values{}
	query.Set("username", username)
	query.Set("token", token)
	return fmt.Sprintf("%s%s?%s", s.AppBaseURL, path, query.Encode())
}

func (s *ResendEmailSender) send(ctx context.Context, to string, subject string, html string, text string) error {
	params := &resend.SendEmailRequest{
		From:    s.From,
		To:      []string{to},
		Subject: subject,
		Html:    html,
		Text:    text,
	}
	if _, err := s.Client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("%w: %v", ErrEmailDispatch, err)
	}
	return nil
}
