// Package tokens keeps the console's access token fresh.
//
// A Manager owns one bearer token. Callers ask it for a token before every
// request; when the token is about to expire the Manager refreshes it. All
// refreshes go through a single flight so concurrent callers share one
// network round trip, and attempts are spaced by a minimum interval so a
// failing server is not hammered.
package tokens

import (
	"context"
	"time"
)

// Token is an access token and the moment it stops being accepted. A zero
// ExpiresAt means the expiry is unknown and the token is treated as valid.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IsZero reports whether t holds no token.
func (t Token) IsZero() bool {
	return t.AccessToken == ""
}

// Expired reports whether t is no longer valid at now.
func (t Token) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// ExpiresWithin reports whether t expires within d of now.
func (t Token) ExpiresWithin(now time.Time, d time.Duration) bool {
	return !t.ExpiresAt.IsZero() && !now.Add(d).Before(t.ExpiresAt)
}

// Refresher exchanges the current access token for a new one.
type Refresher interface {
	Refresh(ctx context.Context, current string) (Token, error)
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context, current string) (Token, error)

func (f RefresherFunc) Refresh(ctx context.Context, current string) (Token, error) {
	return f(ctx, current)
}
