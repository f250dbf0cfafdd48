// Package engage enforces the daily send budget and paces consecutive sends.
package engage

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"outreach/internal/config"
	"outreach/internal/schedule"
)

// ActionSend is the action type logged for every message handed to a sender.
const ActionSend = "send"

// ActionLog is the part of the store the budget needs.
type ActionLog interface {
	CountActionsWithin(ctx context.Context, start, end time.Time, typ string) (int, error)
	PutAction(ctx context.Context, ts time.Time, typ string) error
}

// ShouldAllowSend checks the daily budget (calendar day in now's location)
// and the quiet hours.
func ShouldAllowSend(ctx context.Context, db ActionLog, cfg config.SendingConfig, now time.Time) (bool, error) {
	if InQuietHours(now, cfg) {
		return false, nil
	}
	if cfg.MaxMessagesPerDay <= 0 {
		return true, nil
	}
	startDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	n, err := db.CountActionsWithin(ctx, startDay, startDay.AddDate(0, 0, 1), ActionSend)
	if err != nil {
		return false, err
	}
	return n < cfg.MaxMessagesPerDay, nil
}

// RecordSend logs a send action.
func RecordSend(ctx context.Context, db ActionLog, now time.Time) error {
	return db.PutAction(ctx, now, ActionSend)
}

func InQuietHours(now time.Time, cfg config.SendingConfig) bool {
	return !schedule.NextWindow(now, cfg.QuietHours).Equal(now)
}

// NextAllowed is the first time at or after now outside the quiet hours.
func NextAllowed(now time.Time, cfg config.SendingConfig) time.Time {
	return schedule.NextWindow(now, cfg.QuietHours)
}

// Pacer spaces sends at least MinDelaySeconds apart and adds a random extra
// wait of up to MaxDelaySeconds-MinDelaySeconds.
type Pacer struct {
	limiter *rate.Limiter
	extra   time.Duration
	rnd     *rand.Rand
}

func NewPacer(cfg config.SendingConfig, rnd *rand.Rand) *Pacer {
	minDelay := time.Duration(cfg.MinDelaySeconds) * time.Second
	maxDelay := time.Duration(cfg.MaxDelaySeconds) * time.Second
	limit := rate.Inf
	if minDelay > 0 {
		limit = rate.Every(minDelay)
	}
	return &Pacer{
		limiter: rate.NewLimiter(limit, 1),
		extra:   max(maxDelay-minDelay, 0),
		rnd:     rnd,
	}
}

// Wait blocks until the next send may go out and returns the extra delay used.
func (p *Pacer) Wait(ctx context.Context) (time.Duration, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	if p.extra <= 0 || p.rnd == nil {
		return 0, nil
	}
	d := schedule.Between(0, p.extra, p.rnd)
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return d, ctx.Err()
	case <-t.C:
		return d, nil
	}
}
