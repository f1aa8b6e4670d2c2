package tokens

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultMinInterval   = 30 * time.Second
	DefaultRefreshMargin = 5 * time.Minute
	DefaultCheckInterval = 30 * time.Second

	refreshKey = "refresh"
)

// Manager holds the current access token and refreshes it on demand and in
// the background.
type Manager struct {
	mu          sync.RWMutex
	token       Token
	lastAttempt time.Time
	listeners   []func(Token)

	refresher Refresher
	group     singleflight.Group

	minInterval   time.Duration
	refreshMargin time.Duration
	checkInterval time.Duration
	now           func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithMinInterval sets the minimum gap between two refresh attempts.
func WithMinInterval(d time.Duration) Option {
	return func(m *Manager) {
		m.minInterval = d
	}
}

// WithRefreshMargin sets how long before expiry a token is refreshed.
func WithRefreshMargin(d time.Duration) Option {
	return func(m *Manager) {
		m.refreshMargin = d
	}
}

// WithCheckInterval sets how often Run checks the token.
func WithCheckInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.checkInterval = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a Manager that refreshes through refresher.
func NewManager(refresher Refresher, opts ...Option) *Manager {
	m := &Manager{
		refresher:     refresher,
		minInterval:   DefaultMinInterval,
		refreshMargin: DefaultRefreshMargin,
		checkInterval: DefaultCheckInterval,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Set stores a token obtained by logging in.
func (m *Manager) Set(t Token) {
	m.mu.Lock()
	m.token = t
	m.mu.Unlock()
}

// Clear drops the current token, e.g. on logout or when the server rejects it.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.token = Token{}
	m.lastAttempt = time.Time{}
	m.mu.Unlock()
}

// Current returns the stored token without validating or refreshing it.
func (m *Manager) Current() Token {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// OnRefresh registers fn to be called with every newly refreshed token.
func (m *Manager) OnRefresh(fn func(Token)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// Token returns a usable access token. A token close to expiry is refreshed
// first; if that refresh fails the still valid cached token is returned.
func (m *Manager) Token(ctx context.Context) (string, error) {
	current := m.Current()
	if current.IsZero() {
		return "", ErrNoToken
	}

	now := m.now()
	if current.Expired(now) {
		return "", ErrTokenExpired
	}
	if !current.ExpiresWithin(now, m.refreshMargin) {
		return current.AccessToken, nil
	}

	refreshed, err := m.Refresh(ctx)
	if err == nil {
		return refreshed.AccessToken, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	if !errors.Is(err, ErrRefreshTooFrequent) {
		log.Warn().Err(err).Msg("Token refresh failed, using cached token")
	}
	return current.AccessToken, nil
}

// Refresh performs a silent refresh. A caller arriving while a refresh is in
// flight waits for and shares its result. Otherwise a new attempt is started
// unless the previous one began less than the minimum interval ago, in which
// case ErrRefreshTooFrequent is returned.
func (m *Manager) Refresh(ctx context.Context) (Token, error) {
	// The shared attempt must outlive any single caller's cancellation.
	flightCtx := context.WithoutCancel(ctx)
	ch := m.group.DoChan(refreshKey, func() (any, error) {
		return m.attempt(flightCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Token{}, res.Err
		}
		return res.Val.(Token), nil
	case <-ctx.Done():
		return Token{}, ctx.Err()
	}
}

// ForceRefresh clears the attempt guard and refreshes.
func (m *Manager) ForceRefresh(ctx context.Context) (Token, error) {
	m.mu.Lock()
	m.lastAttempt = time.Time{}
	m.mu.Unlock()
	return m.Refresh(ctx)
}

func (m *Manager) attempt(ctx context.Context) (Token, error) {
	if m.refresher == nil {
		return Token{}, ErrNoRefresher
	}

	m.mu.Lock()
	current := m.token
	if current.IsZero() {
		m.mu.Unlock()
		return Token{}, ErrNoToken
	}
	now := m.now()
	if !m.lastAttempt.IsZero() && now.Sub(m.lastAttempt) < m.minInterval {
		m.mu.Unlock()
		return Token{}, ErrRefreshTooFrequent
	}
	m.lastAttempt = now
	m.mu.Unlock()

	fresh, err := m.refresher.Refresh(ctx, current.AccessToken)
	if err != nil {
		return Token{}, fmt.Errorf("refresh token: %w", err)
	}
	if fresh.IsZero() {
		return Token{}, fmt.Errorf("refresh token: %w", ErrNoToken)
	}

	m.mu.Lock()
	// A Clear during the round trip wins over the late result.
	if m.token.AccessToken != current.AccessToken {
		m.mu.Unlock()
		return Token{}, ErrNoToken
	}
	m.token = fresh
	listeners := append([]func(Token){}, m.listeners...)
	m.mu.Unlock()

	log.Debug().Time("expires_at", fresh.ExpiresAt).Msg("Access token refreshed")
	for _, fn := range listeners {
		fn(fresh)
	}
	return fresh, nil
}

// Run checks the token every check interval and refreshes it when it is
// inside the refresh margin. Expired tokens are left alone. Run blocks until
// ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) check(ctx context.Context) {
	current := m.Current()
	if current.IsZero() {
		return
	}
	now := m.now()
	if current.Expired(now) || !current.ExpiresWithin(now, m.refreshMargin) {
		return
	}
	if _, err := m.Refresh(ctx); err != nil && !errors.Is(err, ErrRefreshTooFrequent) {
		log.Warn().Err(err).Msg("Background token refresh failed")
	}
}
