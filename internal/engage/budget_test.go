package engage

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outreach/internal/config"
	"outreach/internal/store/sqlite"
)

func TestShouldAllowSendRespectsDailyBudget(t *testing.T) {
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cfg := config.SendingConfig{MaxMessagesPerDay: 2}

	ok, err := ShouldAllowSend(ctx, db, cfg, now)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, RecordSend(ctx, db, now))
	require.NoError(t, RecordSend(ctx, db, now.Add(5*time.Minute)))
	ok, err = ShouldAllowSend(ctx, db, cfg, now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok, "daily budget used up")

	ok, err = ShouldAllowSend(ctx, db, cfg, now.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, ok, "new day")
}

func TestQuietHours(t *testing.T) {
	cfg := config.SendingConfig{QuietHours: []int{22, 23, 0}}
	night := time.Date(2025, 1, 1, 23, 10, 0, 0, time.UTC)
	assert.True(t, InQuietHours(night, cfg))
	assert.Equal(t, 1, NextAllowed(night, cfg).Hour())
	assert.False(t, InQuietHours(night.Add(-2*time.Hour), cfg))

	ok, err := ShouldAllowSend(context.Background(), nil, cfg, night)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPacerWithoutDelaysDoesNotBlock(t *testing.T) {
	p := NewPacer(config.SendingConfig{}, rand.New(rand.NewSource(1)))
	for i := 0; i < 5; i++ {
		d, err := p.Wait(context.Background())
		require.NoError(t, err)
		assert.Zero(t, d)
	}
}

func TestPacerHonoursCancellation(t *testing.T) {
	p := NewPacer(config.SendingConfig{MinDelaySeconds: 60, MaxDelaySeconds: 120}, rand.New(rand.NewSource(1)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
