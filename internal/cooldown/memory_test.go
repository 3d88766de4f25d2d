package cooldown

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemoryGate_RejectsRepeatWithinWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)}
	gate := NewMemoryGate(3*time.Second, clock.Now)
	ctx := context.Background()

	d, err := gate.Allow(ctx, "s1", "4912345678904")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	clock.Advance(time.Second)
	d, err = gate.Allow(ctx, "s1", "4912345678904")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 2*time.Second, d.RetryAfter)

	clock.Advance(2 * time.Second)
	d, err = gate.Allow(ctx, "s1", "4912345678904")
	require.NoError(t, err)
	assert.True(t, d.Allowed, "exactly one window later the scan is accepted")
}

func TestMemoryGate_ScopedBySessionAndBarcode(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	gate := NewMemoryGate(5*time.Second, clock.Now)
	ctx := context.Background()

	d, _ := gate.Allow(ctx, "s1", "a")
	assert.True(t, d.Allowed)
	d, _ = gate.Allow(ctx, "s1", "b")
	assert.True(t, d.Allowed, "a different barcode is not debounced")
	d, _ = gate.Allow(ctx, "s2", "a")
	assert.True(t, d.Allowed, "another session is not debounced")
	d, _ = gate.Allow(ctx, "s1", "a")
	assert.False(t, d.Allowed)
}

func TestMemoryGate_RejectedScanDoesNotExtendWindow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	gate := NewMemoryGate(3*time.Second, clock.Now)
	ctx := context.Background()

	gate.Allow(ctx, "s", "a")
	for i := 0; i < 5; i++ {
		clock.Advance(500 * time.Millisecond)
		d, _ := gate.Allow(ctx, "s", "a")
		assert.False(t, d.Allowed)
	}
	clock.Advance(500 * time.Millisecond)
	d, _ := gate.Allow(ctx, "s", "a")
	assert.True(t, d.Allowed)
}

func TestMemoryGate_SweepsExpiredEntries(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	gate := NewMemoryGate(time.Second, clock.Now)
	ctx := context.Background()

	for i := 0; i < sweepEvery-1; i++ {
		gate.Allow(ctx, "s", string(rune('a'+i%26))+time.Duration(i).String())
	}
	clock.Advance(2 * time.Second)
	gate.Allow(ctx, "s", "trigger")

	assert.Equal(t, 1, gate.Len())
}

func TestDisabled(t *testing.T) {
	d, err := Disabled{}.Allow(context.Background(), "s", "a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}
