package utils

import (
	"crypto/rand"
	"encoding/base64"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const verificationTokenBytes = 32

var tokenShapePattern = regexp.MustCompile(`^[0-9A-Za-z_\-]+$`)

// GenerateToken returns a URL-safe random token with 256 bits of entropy.
func GenerateToken() (string, error) {
	buffer := make([]byte, verificationTokenBytes)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// HashToken produces a salted digest of the token for at-rest storage.
// Two digests of the same token differ, so matches are found with
// VerifyToken, never by comparing digests.
func HashToken(token string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// VerifyToken reports whether the token matches the stored digest in
// constant time.
func VerifyToken(token string, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(token)) == nil
}

// ValidTokenShape rejects obviously malformed tokens before any store
// lookup happens.
func ValidTokenShape(token string) bool {
	if len(token) == 0 || len(token) > 128 {
		return false
	}
	return tokenShapePattern.MatchString(token)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PlausibleEmail applies the loose username checks: something@something.tld
// and the RFC length ceiling.
func PlausibleEmail(email string) bool {
	const emailMaxLen = 320
	if len(email) == 0 || len(email) > emailMaxLen {
		return false
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	if strings.ContainsAny(email, " \t") {
		return false
	}
	return strings.Contains(email[at+1:], ".")
}
