package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength follows the NIST minimum for user-chosen secrets.
	MinPasswordLength = 12
	// MaxPasswordBytes is bcrypt's input limit.
	MaxPasswordBytes = 72
)

var (
	ErrInvalidPassword  = errors.New("invalid password")
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("password exceeds maximum length of %d bytes", MaxPasswordBytes)
	ErrPasswordBlank    = errors.New("password must not be only whitespace")
)

// ValidatePassword checks a new password against the account policy.
func ValidatePassword(password string) error {
	switch {
	case len(password) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(password) > MaxPasswordBytes:
		return ErrPasswordTooLong
	case strings.TrimSpace(password) == "":
		return ErrPasswordBlank
	}
	return nil
}

// HashPassword validates password and returns its bcrypt hash. A cost of
// zero means bcrypt.DefaultCost; other values are clamped to bcrypt's range.
func HashPassword(password string, cost int) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), clampCost(cost))
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func clampCost(cost int) int {
	switch {
	case cost == 0:
		return bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		return bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		return bcrypt.MaxCost
	}
	return cost
}

// CheckPassword reports ErrInvalidPassword on mismatch.
func CheckPassword(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidPassword
	}
	return err
}

// GenerateSecret returns 32 random bytes hex encoded, used as the JWT
// signing key when none is configured.
func GenerateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
