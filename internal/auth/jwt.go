package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/booklify/admin/internal/entities"
)

const tokenIssuer = "booklify-cms"

// Claims carried by an access token.
type Claims struct {
	UserID   uint              `json:"user_id"`
	Username string            `json:"username"`
	Role     entities.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies access tokens.
type Issuer struct {
	secret        []byte
	expiry        time.Duration
	refreshWindow time.Duration
	now           func() time.Time
}

// NewIssuer creates an issuer signing with secret. Zero durations fall back
// to one hour of validity and a one day refresh window.
func NewIssuer(secret []byte, expiry, refreshWindow time.Duration) *Issuer {
	if expiry <= 0 {
		expiry = time.Hour
	}
	if refreshWindow < 0 {
		refreshWindow = 0
	} else if refreshWindow == 0 {
		refreshWindow = 24 * time.Hour
	}
	return &Issuer{
		secret:        secret,
		expiry:        expiry,
		refreshWindow: refreshWindow,
		now:           time.Now,
	}
}

// Expiry returns the lifetime of issued tokens.
func (i *Issuer) Expiry() time.Duration {
	return i.expiry
}

// Issue signs a new token for user and returns it with its expiry time.
func (i *Issuer) Issue(user *entities.User) (string, time.Time, error) {
	now := i.now()
	expiresAt := jwt.NewNumericDate(now.Add(i.expiry))
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: expiresAt,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt.Time, nil
}

// Parse verifies a token and its expiry.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, i.key,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseForRefresh verifies the signature of a token that may have expired,
// accepting it while it is inside the refresh window.
func (i *Issuer) ParseForRefresh(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, i.key,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || claims.Issuer != tokenIssuer || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}
	if i.now().After(claims.ExpiresAt.Add(i.refreshWindow)) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

func (i *Issuer) key(*jwt.Token) (any, error) {
	return i.secret, nil
}
