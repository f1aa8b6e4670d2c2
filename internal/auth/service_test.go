package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/booklify/admin/internal/config"
	"github.com/booklify/admin/internal/database/users"
	"github.com/booklify/admin/internal/entities"
)

const testPassword = "correct-horse-battery"

func testAuthConfig() config.Auth {
	return config.Auth{
		TokenExpiry:      time.Hour,
		RefreshWindow:    24 * time.Hour,
		BcryptCost:       4, // Low cost for faster tests
		MaxLoginAttempts: 3,
		LockoutDuration:  30 * time.Minute,
		RateLimitWindow:  15 * time.Minute,
	}
}

func setupService(t *testing.T, cfg config.Auth) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.User{}))

	issuer := NewIssuer([]byte("test-secret"), cfg.TokenExpiry, cfg.RefreshWindow)
	return NewService(users.NewRepository(db), issuer, cfg)
}

func TestService_CreateUser(t *testing.T) {
	svc := setupService(t, testAuthConfig())

	user, err := svc.CreateUser("hoa", "hoa@booklify.vn", testPassword, entities.UserRoleStaff)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, testPassword, user.PasswordHash)

	tests := []struct {
		name                  string
		username, email, pass string
		role                  entities.UserRole
		wantErr               error
	}{
		{"missing username", "", "a@b.vn", testPassword, entities.UserRoleStaff, ErrUsernameRequired},
		{"missing email", "abc", "", testPassword, entities.UserRoleStaff, ErrEmailRequired},
		{"missing password", "abc", "a@b.vn", "", entities.UserRoleStaff, ErrPasswordRequired},
		{"bad username", "a b", "a@b.vn", testPassword, entities.UserRoleStaff, ErrUsernameInvalid},
		{"bad email", "abc", "not-an-email", testPassword, entities.UserRoleStaff, ErrEmailInvalid},
		{"bad role", "abc", "a@b.vn", testPassword, entities.UserRole("Owner"), ErrInvalidRole},
		{"duplicate", "hoa", "other@b.vn", testPassword, entities.UserRoleStaff, ErrUserExists},
		{"short password", "abc", "a@b.vn", "short", entities.UserRoleStaff, ErrPasswordTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateUser(tt.username, tt.email, tt.pass, tt.role)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_EnsureAdmin(t *testing.T) {
	cfg := testAuthConfig()
	cfg.AdminUsername = "root"
	cfg.AdminPassword = testPassword
	svc := setupService(t, cfg)

	admin, err := svc.EnsureAdmin()
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, entities.UserRoleAdmin, admin.Role)
	assert.Equal(t, "root@booklify.local", admin.Email)

	again, err := svc.EnsureAdmin()
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestService_LoginAndValidate(t *testing.T) {
	svc := setupService(t, testAuthConfig())
	_, err := svc.CreateUser("hoa", "hoa@booklify.vn", testPassword, entities.UserRoleAdmin)
	require.NoError(t, err)

	session, err := svc.Login("hoa@booklify.vn", testPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotNil(t, session.User.LastLoginAt)

	user, err := svc.ValidateToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "hoa", user.Username)

	_, err = svc.ValidateToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Login("nobody", testPassword)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_Lockout(t *testing.T) {
	svc := setupService(t, testAuthConfig())
	_, err := svc.CreateUser("hoa", "hoa@booklify.vn", testPassword, entities.UserRoleStaff)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.Authenticate("hoa", "wrong-password-123")
		assert.ErrorIs(t, err, ErrInvalidPassword)
	}

	_, err = svc.Authenticate("hoa", testPassword)
	assert.ErrorIs(t, err, ErrAccountLocked)

	svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	user, err := svc.Authenticate("hoa", testPassword)
	require.NoError(t, err)
	assert.Zero(t, user.FailedLoginCount)
}

func TestService_Refresh(t *testing.T) {
	svc := setupService(t, testAuthConfig())
	_, err := svc.CreateUser("hoa", "hoa@booklify.vn", testPassword, entities.UserRoleStaff)
	require.NoError(t, err)

	session, err := svc.Login("hoa", testPassword)
	require.NoError(t, err)

	refreshed, err := svc.Refresh(session.AccessToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.AccessToken, refreshed.AccessToken)
	assert.Equal(t, "hoa", refreshed.User.Username)

	_, err = svc.Refresh("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_DisabledAccount(t *testing.T) {
	cfg := testAuthConfig()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.User{}))
	repo := users.NewRepository(db)
	svc := NewService(repo, NewIssuer([]byte("test-secret"), cfg.TokenExpiry, cfg.RefreshWindow), cfg)

	user, err := svc.CreateUser("hoa", "hoa@booklify.vn", testPassword, entities.UserRoleStaff)
	require.NoError(t, err)
	session, err := svc.Login("hoa", testPassword)
	require.NoError(t, err)

	_, err = repo.SetActive(user.ID, false)
	require.NoError(t, err)

	_, err = svc.Login("hoa", testPassword)
	assert.ErrorIs(t, err, ErrAccountDisabled)
	_, err = svc.Login("hoa", "wrong-password-123")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	_, err = svc.ValidateToken(session.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.Refresh(session.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = repo.SetActive(user.ID, true)
	require.NoError(t, err)
	_, err = svc.ValidateToken(session.AccessToken)
	assert.NoError(t, err)
}
