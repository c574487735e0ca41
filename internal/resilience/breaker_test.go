package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func fail(context.Context) error { return errBoom }
func succeed(context.Context) error { return nil }

func newTestBreaker(threshold int, cooldown time.Duration) (*Breaker, *time.Time) {
	b := NewBreaker("test", Config{FailureThreshold: threshold, Cooldown: cooldown})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	return b, &now
}

func TestBreaker_ClosedPassesThrough(t *testing.T) {
	t.Parallel()

	b, _ := newTestBreaker(3, time.Minute)
	calls := 0
	require.NoError(t, b.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	}))
	assert.Equal(t, 1, calls)
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	t.Parallel()

	b, _ := newTestBreaker(3, time.Minute)
	ctx := context.Background()
	for range 3 {
		assert.ErrorIs(t, b.Do(ctx, fail), errBoom)
	}
	assert.Equal(t, Open, b.State())

	err := b.Do(ctx, func(context.Context) error {
		t.Error("must not be called while open")
		return nil
	})
	assert.ErrorIs(t, err, ErrOpen)
}

func TestBreaker_SuccessResetsCount(t *testing.T) {
	t.Parallel()

	b, _ := newTestBreaker(3, time.Minute)
	ctx := context.Background()
	_ = b.Do(ctx, fail)
	_ = b.Do(ctx, fail)
	require.NoError(t, b.Do(ctx, succeed))
	_ = b.Do(ctx, fail)
	_ = b.Do(ctx, fail)
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	t.Parallel()

	b, now := newTestBreaker(1, time.Minute)
	ctx := context.Background()

	_ = b.Do(ctx, fail)
	require.Equal(t, Open, b.State())

	*now = now.Add(time.Minute)
	assert.Equal(t, HalfOpen, b.State())

	require.NoError(t, b.Do(ctx, succeed))
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	t.Parallel()

	b, now := newTestBreaker(1, time.Minute)
	ctx := context.Background()

	_ = b.Do(ctx, fail)
	*now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, b.Do(ctx, fail), errBoom)
	assert.Equal(t, Open, b.State())
	assert.ErrorIs(t, b.Do(ctx, succeed), ErrOpen)
}

func TestBreaker_CancellationDoesNotTrip(t *testing.T) {
	t.Parallel()

	b, _ := newTestBreaker(1, time.Minute)
	err := b.Do(context.Background(), func(context.Context) error { return context.Canceled })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Closed, b.State())
}

func TestCall_ReturnsValue(t *testing.T) {
	t.Parallel()

	b, _ := newTestBreaker(1, time.Minute)
	v, err := Call(context.Background(), b, func(context.Context) (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)

	_, _ = Call(context.Background(), b, func(context.Context) (string, error) { return "", errBoom })
	v, err = Call(context.Background(), b, func(context.Context) (string, error) { return "late", nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.Empty(t, v)
}

func TestBreakers_Registry(t *testing.T) {
	t.Parallel()

	r := NewBreakers(FromConfig(1, 60))
	ai := r.Get(AI)
	assert.Same(t, ai, r.Get(AI))
	assert.NotSame(t, ai, r.Get(Website))

	_ = ai.Do(context.Background(), fail)
	states := r.States()
	assert.Equal(t, Open, states[AI])
	assert.Equal(t, Closed, states[Website])
}

func TestFromConfig(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultConfig(), FromConfig(0, -1))
	cfg := FromConfig(2, 10)
	assert.Equal(t, 2, cfg.FailureThreshold)
	assert.Equal(t, 10*time.Second, cfg.Cooldown)
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "closed", Closed.String())
	assert.Equal(t, "open", Open.String())
	assert.Equal(t, "half-open", HalfOpen.String())
	assert.Equal(t, "unknown", State(9).String())
}
