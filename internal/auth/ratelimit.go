package auth

import (
	"sync"
	"time"

	"github.com/booklify/admin/internal/config"
)

// RateLimiter throttles login attempts per client IP and login name inside a
// fixed window, locking the pair out once the limit is hit.
type RateLimiter struct {
	mu          sync.Mutex
	attempts    map[string]*attemptRecord
	maxAttempts int
	window      time.Duration
	lockout     time.Duration
	now         func() time.Time
	stop        chan struct{}
	stopOnce    sync.Once
}

type attemptRecord struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// NewRateLimiter creates a limiter from the auth configuration. Call Start to
// run the background cleanup and Stop to end it.
func NewRateLimiter(cfg config.Auth) *RateLimiter {
	rl := &RateLimiter{
		attempts:    make(map[string]*attemptRecord),
		maxAttempts: cfg.MaxLoginAttempts,
		window:      cfg.RateLimitWindow,
		lockout:     cfg.LockoutDuration,
		now:         time.Now,
		stop:        make(chan struct{}),
	}
	if rl.maxAttempts <= 0 {
		rl.maxAttempts = 5
	}
	if rl.window <= 0 {
		rl.window = 15 * time.Minute
	}
	if rl.lockout <= 0 {
		rl.lockout = 30 * time.Minute
	}
	return rl
}

// Start runs periodic removal of stale records until Stop is called.
func (rl *RateLimiter) Start(interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.cleanup()
			case <-rl.stop:
				return
			}
		}
	}()
}

// Stop ends the background cleanup. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func key(ip, login string) string {
	return ip + ":" + login
}

// Allow reports whether a login attempt may proceed. When it may not,
// retryAfter tells how long the lockout lasts.
func (rl *RateLimiter) Allow(ip, login string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	record, exists := rl.attempts[key(ip, login)]
	if !exists {
		return true, 0
	}
	if !record.lockedUntil.IsZero() && now.Before(record.lockedUntil) {
		return false, record.lockedUntil.Sub(now)
	}
	if now.Sub(record.firstAttempt) > rl.window {
		return true, 0
	}
	if record.count < rl.maxAttempts {
		return true, 0
	}
	return false, rl.lockout
}

// RecordFailure counts a failed attempt and reports whether it triggered a
// lockout.
func (rl *RateLimiter) RecordFailure(ip, login string) (bool, time.Duration) {
	now := rl.now()
	k := key(ip, login)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	record, exists := rl.attempts[k]
	if !exists || now.Sub(record.firstAttempt) > rl.window {
		record = &attemptRecord{firstAttempt: now}
		rl.attempts[k] = record
	}

	record.count++
	if record.count >= rl.maxAttempts {
		record.lockedUntil = now.Add(rl.lockout)
		return true, rl.lockout
	}
	return false, 0
}

// RecordSuccess clears the failure record for a successful login.
func (rl *RateLimiter) RecordSuccess(ip, login string) {
	rl.mu.Lock()
	delete(rl.attempts, key(ip, login))
	rl.mu.Unlock()
}

func (rl *RateLimiter) cleanup() {
	now := rl.now()
	expiry := rl.window + rl.lockout

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for k, record := range rl.attempts {
		windowExpired := now.Sub(record.firstAttempt) > expiry
		lockoutExpired := record.lockedUntil.IsZero() || now.After(record.lockedUntil)
		if windowExpired && lockoutExpired {
			delete(rl.attempts, k)
		}
	}
}
