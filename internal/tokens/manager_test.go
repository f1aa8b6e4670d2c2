package tokens

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type countingRefresher struct {
	calls   atomic.Int32
	clock   *fakeClock
	release chan struct{}
	err     error
}

func (r *countingRefresher) Refresh(_ context.Context, current string) (Token, error) {
	n := r.calls.Add(1)
	if r.release != nil {
		<-r.release
	}
	if r.err != nil {
		return Token{}, r.err
	}
	return Token{
		AccessToken: current + "-r" + string(rune('0'+n)),
		ExpiresAt:   r.clock.Now().Add(time.Hour),
	}, nil
}

func newTestManager(r *countingRefresher, clock *fakeClock) *Manager {
	return NewManager(r, WithClock(clock.Now))
}

func TestToken_NoToken(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(&countingRefresher{clock: clock}, clock)

	_, err := m.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestToken_Expired(t *testing.T) {
	clock := newFakeClock()
	r := &countingRefresher{clock: clock}
	m := newTestManager(r, clock)
	m.Set(Token{AccessToken: "abc", ExpiresAt: clock.Now().Add(-time.Second)})

	_, err := m.Token(context.Background())
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Zero(t, r.calls.Load())
}

func TestToken_FreshTokenIsReturnedAsIs(t *testing.T) {
	clock := newFakeClock()
	r := &countingRefresher{clock: clock}
	m := newTestManager(r, clock)
	m.Set(Token{AccessToken: "abc", ExpiresAt: clock.Now().Add(time.Hour)})

	tok, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)
	assert.Zero(t, r.calls.Load())
}

func TestToken_RefreshesInsideMargin(t *testing.T) {
	clock := newFakeClock()
	r := &countingRefresher{clock: clock}
	m := newTestManager(r, clock)
	m.Set(Token{AccessToken: "abc", ExpiresAt: clock.Now().Add(2 * time.Minute)})

	tok, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc-r1", tok)
	assert.Equal(t, "abc-r1", m.Current().AccessToken)
}

func TestToken_FallsBackToCachedTokenOnRefreshFailure(t *testing.T) {
	clock := newFakeClock()
	r := &countingRefresher{clock: clock, err: errors.New("boom")}
	m := newTestManager(r, clock)
	m.Set(Token{AccessToken: "abc", ExpiresAt: clock.Now().Add(time.Minute)})

	tok, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)
}

func TestRefresh_IntervalGuard(t *testing.T) {
	clock := newFakeClock()
	r := &countingRefresher{clock: clock}
	m := newTestManager(r, clock)
	m.Set(Token{AccessToken: "abc", ExpiresAt: clock.Now().Add(time.Hour)})

	_, err := m.Refresh(context.Background())
	require.NoError(t, err)

	clock.Advance(10 * time.Second)
	_, err = m.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrRefreshTooFrequent)

	clock.Advance(DefaultMinInterval)
	_, err = m.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), r.calls.Load())
}

func TestRefresh_FailedAttemptStillCountsForGuard(t *testing.T) {
	clock := newFakeClock()
	r := &countingRefresher{clock: clock, err: errors.New("offline")}
	m := newTestManager(r, clock)
	m.Set(Token{AccessToken: "abc", ExpiresAt: clock.Now().Add(time.Hour)})

	_, err := m.Refresh(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRefreshTooFrequent)

	_, err = m.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrRefreshTooFrequent)
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestForceRefresh_ResetsGuard(t *testing.T) {
	clock := newFakeClock()
	r := &countingRefresher{clock: clock}
	m := newTestManager(r, clock)
	m.Set(Token{AccessToken: "abc", ExpiresAt: clock.Now().Add(time.Hour)})

	_, err := m.Refresh(context.Background())
	require.NoError(t, err)

	tok, err := m.ForceRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc-r1-r2", tok.AccessToken)
}

func TestRefresh_ConcurrentCallersShareOneFlight(t *testing.T) {
	clock := newFakeClock()
	r := &countingRefresher{clock: clock, release: make(chan struct{})}
	m := newTestManager(r, clock)
	m.Set(Token{AccessToken: "abc", ExpiresAt: clock.Now().Add(time.Hour)})

	const callers = 8
	results := make([]Token, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = m.Refresh(context.Background())
	}()
	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, time.Millisecond)

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = m.Refresh(context.Background())
		}(i)
	}
	// Give the joiners time to attach to the running flight.
	time.Sleep(20 * time.Millisecond)
	close(r.release)
	wg.Wait()

	assert.Equal(t, int32(1), r.calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "abc-r1", results[i].AccessToken)
	}
}

func TestRefresh_CallerCancellationDoesNotAbortFlight(t *testing.T) {
	clock := newFakeClock()
	r := &countingRefresher{clock: clock, release: make(chan struct{})}
	m := newTestManager(r, clock)
	m.Set(Token{AccessToken: "abc", ExpiresAt: clock.Now().Add(time.Hour)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := m.Refresh(ctx)
		done <- err
	}()
	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(r.release)
	assert.Eventually(t, func() bool { return m.Current().AccessToken == "abc-r1" }, time.Second, time.Millisecond)
}

func TestRefresh_ClearDuringFlightWins(t *testing.T) {
	clock := newFakeClock()
	r := &countingRefresher{clock: clock, release: make(chan struct{})}
	m := newTestManager(r, clock)
	m.Set(Token{AccessToken: "abc", ExpiresAt: clock.Now().Add(time.Hour)})

	done := make(chan error, 1)
	go func() {
		_, err := m.Refresh(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, time.Millisecond)
	m.Clear()
	close(r.release)

	assert.ErrorIs(t, <-done, ErrNoToken)
	assert.True(t, m.Current().IsZero())
}

func TestOnRefresh_NotifiesListeners(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(&countingRefresher{clock: clock}, clock)
	m.Set(Token{AccessToken: "abc", ExpiresAt: clock.Now().Add(time.Hour)})

	var got []Token
	m.OnRefresh(func(tok Token) { got = append(got, tok) })

	_, err := m.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "abc-r1", got[0].AccessToken)
}

func TestRefresh_NoRefresher(t *testing.T) {
	m := NewManager(nil)
	m.Set(Token{AccessToken: "abc"})

	_, err := m.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNoRefresher)
}

func TestCheck_SkipsExpiredAndFreshTokens(t *testing.T) {
	clock := newFakeClock()
	r := &countingRefresher{clock: clock}
	m := newTestManager(r, clock)

	m.Set(Token{AccessToken: "expired", ExpiresAt: clock.Now().Add(-time.Minute)})
	m.check(context.Background())
	assert.Zero(t, r.calls.Load())

	m.Set(Token{AccessToken: "fresh", ExpiresAt: clock.Now().Add(time.Hour)})
	m.check(context.Background())
	assert.Zero(t, r.calls.Load())

	m.Set(Token{AccessToken: "soon", ExpiresAt: clock.Now().Add(time.Minute)})
	m.check(context.Background())
	assert.Equal(t, int32(1), r.calls.Load())
	assert.Equal(t, "soon-r1", m.Current().AccessToken)
}

func TestRun_StopsWithContext(t *testing.T) {
	clock := newFakeClock()
	r := &countingRefresher{clock: clock}
	m := NewManager(r, WithClock(clock.Now), WithCheckInterval(5*time.Millisecond))
	m.Set(Token{AccessToken: "soon", ExpiresAt: clock.Now().Add(time.Minute)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return r.calls.Load() >= 1 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
