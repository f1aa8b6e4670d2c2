package auth

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/booklify/admin/internal/config"
	"github.com/booklify/admin/internal/database/users"
	"github.com/booklify/admin/internal/entities"
)

// Validation patterns
var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,64}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrAuthRequired     = errors.New("authentication required")
	ErrInvalidRole      = errors.New("invalid role")
	ErrUsernameRequired = errors.New("username is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrAccountLocked    = errors.New("account is locked due to too many failed login attempts")
	ErrAccountDisabled  = errors.New("account is disabled")
	ErrUsernameInvalid  = errors.New("username must be 3-64 characters, alphanumeric, dot, underscore or hyphen")
	ErrEmailInvalid     = errors.New("invalid email format")
)

// Session is the result of a login or refresh.
type Session struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *entities.User
}

// Service handles authentication and user management.
type Service struct {
	users  *users.Repository
	issuer *Issuer
	config config.Auth
	now    func() time.Time
}

// NewService creates a new authentication service.
func NewService(userRepo *users.Repository, issuer *Issuer, cfg config.Auth) *Service {
	return &Service{
		users:  userRepo,
		issuer: issuer,
		config: cfg,
		now:    time.Now,
	}
}

// CreateUser creates a new user with password authentication.
func (s *Service) CreateUser(username, email, password string, role entities.UserRole) (*entities.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if email == "" {
		return nil, ErrEmailRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	if !usernamePattern.MatchString(username) {
		return nil, ErrUsernameInvalid
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	exists, err := s.users.Exists(username, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}

	if err := s.users.CreateUser(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// ValidateEmail checks the shape of an email address.
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	// RFC 5321 limit is 254
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return ErrEmailInvalid
	}
	return nil
}

// EnsureAdmin creates the bootstrap admin when the database has no users.
// It is a no-op when users exist or no credentials are configured.
func (s *Service) EnsureAdmin() (*entities.User, error) {
	if s.config.AdminUsername == "" || s.config.AdminPassword == "" {
		return nil, nil
	}
	count, err := s.users.Count()
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, nil
	}
	email := s.config.AdminEmail
	if email == "" {
		email = s.config.AdminUsername + "@booklify.local"
	}
	return s.CreateUser(s.config.AdminUsername, email, s.config.AdminPassword, entities.UserRoleAdmin)
}

// Authenticate validates credentials and returns the user.
// Implements account lockout after too many failed attempts.
func (s *Service) Authenticate(login, password string) (*entities.User, error) {
	user, err := s.users.GetUserByLogin(strings.TrimSpace(login))
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	now := s.now()
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		s.recordFailedLogin(user, now)
		return nil, err
	}
	if !user.IsActive() {
		return nil, ErrAccountDisabled
	}

	if err := s.users.RecordSuccessfulLogin(user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.FailedLoginCount = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now

	return user, nil
}

// recordFailedLogin increments the failed login counter and locks the account if threshold reached.
func (s *Service) recordFailedLogin(user *entities.User, now time.Time) {
	user.FailedLoginCount++

	maxAttempts := s.config.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}

	var lockedUntil *time.Time
	if user.FailedLoginCount >= maxAttempts {
		lockoutDuration := s.config.LockoutDuration
		if lockoutDuration == 0 {
			lockoutDuration = 30 * time.Minute
		}
		until := now.Add(lockoutDuration)
		lockedUntil = &until
	}

	_ = s.users.RecordFailedLogin(user.ID, user.FailedLoginCount, lockedUntil)
}

// Login authenticates and issues an access token.
func (s *Service) Login(login, password string) (*Session, error) {
	user, err := s.Authenticate(login, password)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Refresh exchanges a valid or recently expired token for a new one. The
// user is reloaded so role changes and deletions take effect.
func (s *Service) Refresh(token string) (*Session, error) {
	claims, err := s.issuer.ParseForRefresh(token)
	if err != nil {
		return nil, err
	}
	user, err := s.GetUserByID(claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive() {
		return nil, ErrInvalidToken
	}
	return s.issue(user)
}

// ValidateToken checks an access token and returns the associated user.
func (s *Service) ValidateToken(token string) (*entities.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	claims, err := s.issuer.Parse(token)
	if err != nil {
		return nil, err
	}
	user, err := s.GetUserByID(claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive() {
		return nil, ErrInvalidToken
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	user, err := s.users.GetUserByID(id)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) issue(user *entities.User) (*Session, error) {
	token, expiresAt, err := s.issuer.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}
