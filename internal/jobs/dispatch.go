package jobs

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"outreach/internal/logging"
	"outreach/internal/metrics"
	"outreach/internal/model"
)

// RunFollowUpsOnce sends every follow-up due at now. Failures of a single
// listing are logged and skipped; an exhausted budget or a cancelled context
// ends the run early, as do quiet hours. It returns the number of messages sent.
func RunFollowUpsOnce(ctx context.Context, d Deps, now time.Time) (int, error) {
	start := time.Now()
	metrics.DispatchRuns.Inc()
	defer metrics.ObserveDispatchDuration(start)

	due := d.Engine.DueFollowUps(now)
	sent := 0
	for _, id := range due {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if err := checkBudget(ctx, d, now); err != nil {
			switch {
			case errors.Is(err, ErrQuietHours):
				logging.Info("dispatch_quiet_hours", map[string]any{"sent": sent, "due": len(due)})
				return sent, nil
			case errors.Is(err, ErrBudgetExhausted):
				logging.Info("dispatch_budget_exhausted", map[string]any{"sent": sent, "due": len(due)})
				return sent, nil
			}
			metrics.DispatchErrors.Inc()
			return sent, err
		}
		if err := sendFollowUp(ctx, d, id, now); err != nil {
			metrics.DispatchErrors.Inc()
			logging.Error("followup_error", map[string]any{"listing_id": id, "error": err.Error()})
			continue
		}
		sent++
	}
	logging.Info("dispatch_once", map[string]any{"due": len(due), "sent": sent, "now": now})
	return sent, nil
}

func sendFollowUp(ctx context.Context, d Deps, listingID string, now time.Time) error {
	stage, ok := d.Engine.NextStage(listingID)
	if !ok {
		return errors.Errorf("no follow-up stage left for %s", listingID)
	}
	l, err := d.DB.LoadListing(ctx, listingID)
	if err != nil {
		return err
	}
	msg, err := d.Generator.GenerateFollowUp(ctx, l.RawText, stage, l.ID, l.URL)
	if err != nil {
		return err
	}
	if st, ok := d.Engine.Get(listingID); ok {
		if prev, ok := st.LastMessage(); ok {
			msg.PreviousMessageID = prev.ID
		}
	}
	if err := send(ctx, d, l, msg); err != nil {
		return err
	}
	if err := record(ctx, d, l, msg, now); err != nil {
		return err
	}
	metrics.MessagesSent.WithLabelValues(stage.String()).Inc()
	return nil
}

// RunFollowUpLoop runs RunFollowUpsOnce on a ticker until ctx is cancelled.
// clock supplies the dispatch time; nil means time.Now.
func RunFollowUpLoop(ctx context.Context, d Deps, interval time.Duration, clock func() time.Time) error {
	if clock == nil {
		clock = time.Now
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	// run immediately
	if _, err := RunFollowUpsOnce(ctx, d, clock()); err != nil && ctx.Err() == nil {
		logging.Error("dispatch_once_error", map[string]any{"error": err.Error()})
	}
	for {
		select {
		case <-ctx.Done():
			logging.Info("dispatch_loop_stop", nil)
			return ctx.Err()
		case <-t.C:
			if _, err := RunFollowUpsOnce(ctx, d, clock()); err != nil && ctx.Err() == nil {
				logging.Error("dispatch_once_error", map[string]any{"error": err.Error()})
			}
		}
	}
}

// PendingStage is a due listing together with the stage it would receive.
type PendingStage struct {
	ListingID string
	Stage     model.Stage
}

// Pending lists what RunFollowUpsOnce would send at now without sending it.
func Pending(d Deps, now time.Time) []PendingStage {
	var out []PendingStage
	for _, id := range d.Engine.DueFollowUps(now) {
		if st, ok := d.Engine.NextStage(id); ok {
			out = append(out, PendingStage{ListingID: id, Stage: st})
		}
	}
	return out
}
