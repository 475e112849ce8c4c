package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow_PerKey(t *testing.T) {
	now := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	krl := New(1, 2, time.Minute)
	krl.now = func() time.Time { return now }

	assert.True(t, krl.Allow("10.0.0.1"))
	assert.True(t, krl.Allow("10.0.0.1"))
	assert.False(t, krl.Allow("10.0.0.1"), "burst exhausted")
	assert.True(t, krl.Allow("10.0.0.2"), "other keys are independent")

	now = now.Add(time.Second)
	assert.True(t, krl.Allow("10.0.0.1"), "refilled")
}

func TestSweep(t *testing.T) {
	now := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	krl := New(1, 1, time.Minute)
	krl.now = func() time.Time { return now }

	krl.Allow("old")
	now = now.Add(50 * time.Second)
	krl.Allow("recent")
	now = now.Add(20 * time.Second)

	assert.Equal(t, 1, krl.Sweep())
	assert.Equal(t, 1, krl.Len())
}

func TestWait(t *testing.T) {
	krl := New(1000, 1, time.Minute)
	require.NoError(t, krl.Wait(context.Background(), "k"))

	slow := New(0.001, 1, time.Minute)
	require.NoError(t, slow.Wait(context.Background(), "k"))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, slow.Wait(ctx, "k"))
}
