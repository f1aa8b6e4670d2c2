package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "valid password", password: "validpassword123"},
		{name: "password too short", password: "short", wantErr: ErrPasswordTooShort},
		{name: "password at minimum length", password: "123456789012"},
		{name: "password too long", password: strings.Repeat("a", 73), wantErr: ErrPasswordTooLong},
		{name: "password at maximum length", password: strings.Repeat("a", 72)},
		{name: "whitespace only", password: strings.Repeat(" ", 14), wantErr: ErrPasswordBlank},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password, 4)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, hash)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, tt.password, hash)
			assert.NoError(t, CheckPassword(tt.password, hash))
		})
	}
}

func TestCheckPassword_Mismatch(t *testing.T) {
	hash, err := HashPassword("correct horse battery", 4)
	require.NoError(t, err)

	assert.ErrorIs(t, CheckPassword("wrong horse battery", hash), ErrInvalidPassword)
}

func TestHashPassword_ClampsCost(t *testing.T) {
	hash, err := HashPassword("validpassword123", 1)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestGenerateSecret(t *testing.T) {
	a, err := GenerateSecret()
	require.NoError(t, err)
	b, err := GenerateSecret()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
