package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(testAuthConfig())
	rl.now = func() time.Time { return now }

	allowed, _ := rl.Allow("1.2.3.4", "hoa")
	assert.True(t, allowed)

	locked, _ := rl.RecordFailure("1.2.3.4", "hoa")
	assert.False(t, locked)
	rl.RecordFailure("1.2.3.4", "hoa")
	locked, retry := rl.RecordFailure("1.2.3.4", "hoa")
	assert.True(t, locked)
	assert.Equal(t, 30*time.Minute, retry)

	allowed, retry = rl.Allow("1.2.3.4", "hoa")
	assert.False(t, allowed)
	assert.Equal(t, 30*time.Minute, retry)

	// Other IPs and names are unaffected.
	allowed, _ = rl.Allow("5.6.7.8", "hoa")
	assert.True(t, allowed)

	now = now.Add(31 * time.Minute)
	allowed, _ = rl.Allow("1.2.3.4", "hoa")
	assert.True(t, allowed)
}

func TestRateLimiter_SuccessClears(t *testing.T) {
	rl := NewRateLimiter(testAuthConfig())

	rl.RecordFailure("ip", "hoa")
	rl.RecordFailure("ip", "hoa")
	rl.RecordSuccess("ip", "hoa")

	locked, _ := rl.RecordFailure("ip", "hoa")
	assert.False(t, locked)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(testAuthConfig())
	rl.now = func() time.Time { return now }

	rl.RecordFailure("ip", "hoa")
	now = now.Add(2 * time.Hour)
	rl.cleanup()

	assert.Empty(t, rl.attempts)
	rl.Stop()
	rl.Stop()
}
