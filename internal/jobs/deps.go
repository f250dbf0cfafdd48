// Package jobs runs the outreach workflows on top of the engines: first
// contact, scheduled follow-ups and reply handling, persisting every step.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"outreach/internal/config"
	"outreach/internal/engage"
	"outreach/internal/followup"
	"outreach/internal/gate"
	"outreach/internal/generator"
	"outreach/internal/logging"
	"outreach/internal/model"
	"outreach/internal/outcome"
	"outreach/internal/store/sqlite"
)

var (
	ErrSellerContacted = errors.New("seller already contacted")
	ErrBudgetExhausted = errors.New("send budget exhausted")
	ErrQuietHours      = errors.New("inside quiet hours")
)

// RejectedError carries the gate verdict for a listing that should not be contacted.
type RejectedError struct {
	ListingID string
	Result    gate.Result
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("listing %s rejected (%s): %s", e.ListingID, e.Result.RejectionType, e.Result.Reason)
}

// Deps bundles what the workflows need. Gate and Pacer are optional.
type Deps struct {
	DB        *sqlite.DB
	Engine    *followup.Engine
	Generator *generator.Generator
	Tracker   *outcome.Tracker
	Gate      *gate.Gate
	Sender    Sender
	Pacer     *engage.Pacer
	Sending   config.SendingConfig
}

// Restore loads persisted conversations into the engine and seeds the
// generator with every hash sent so far.
func Restore(ctx context.Context, d Deps) error {
	convs, err := d.DB.LoadConversations(ctx)
	if err != nil {
		return err
	}
	for _, c := range convs {
		d.Engine.Register(c)
	}
	hashes, err := d.DB.SentHashes(ctx)
	if err != nil {
		return err
	}
	d.Generator.SeedSentHashes(hashes)
	logging.Info("restore", map[string]any{"conversations": len(convs), "hashes": len(hashes)})
	return nil
}

func persist(ctx context.Context, d Deps, listingID string) error {
	st, ok := d.Engine.Get(listingID)
	if !ok {
		return errors.Wrap(followup.ErrUnknownListing, listingID)
	}
	return d.DB.SaveConversation(ctx, st)
}

// send paces and hands one accepted message to the channel. On failure the
// message hash is released so the text may be generated again.
func send(ctx context.Context, d Deps, l sqlite.Listing, msg model.Message) error {
	if d.Pacer != nil {
		if _, err := d.Pacer.Wait(ctx); err != nil {
			d.Generator.Release(msg.Text)
			return err
		}
	}
	if err := d.Sender.Send(ctx, l, msg); err != nil {
		d.Generator.Release(msg.Text)
		return errors.Wrapf(err, "send %s", l.ID)
	}
	return nil
}

// record books a sent message in the engine, the send log and the store.
func record(ctx context.Context, d Deps, l sqlite.Listing, msg model.Message, now time.Time) error {
	if err := d.Engine.RecordMessageSent(l.ID, msg, now); err != nil {
		return err
	}
	if err := engage.RecordSend(ctx, d.DB, now); err != nil {
		return err
	}
	if err := d.DB.AddSentHash(ctx, generator.Hash(msg.Text), now); err != nil {
		return err
	}
	putEvent(ctx, d, now, model.EventMessageSent, map[string]any{
		"listing_id": l.ID, "message_id": msg.ID, "stage": msg.Stage.String(), "variant": msg.Variant.String(),
	})
	return persist(ctx, d, l.ID)
}

// putEvent logs instead of failing: the event log only feeds analytics.
func putEvent(ctx context.Context, d Deps, now time.Time, typ string, payload map[string]any) {
	if err := d.DB.PutEvent(ctx, now, typ, payload); err != nil {
		logging.Warn("event_log_error", map[string]any{"type": typ, "error": err.Error()})
	}
}

// checkBudget returns ErrQuietHours or ErrBudgetExhausted when no message may go out at now.
func checkBudget(ctx context.Context, d Deps, now time.Time) error {
	if engage.InQuietHours(now, d.Sending) {
		return ErrQuietHours
	}
	ok, err := engage.ShouldAllowSend(ctx, d.DB, d.Sending, now)
	if err != nil {
		return err
	}
	if !ok {
		return ErrBudgetExhausted
	}
	return nil
}
