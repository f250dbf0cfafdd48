package jobs

import (
	"context"
	"time"

	"outreach/internal/logging"
	"outreach/internal/metrics"
	"outreach/internal/model"
	"outreach/internal/store/sqlite"
)

// StartOutreach contacts the seller of a new listing: seller de-duplication,
// listing gate, budget, generation, sending and registration, in that order.
func StartOutreach(ctx context.Context, d Deps, l sqlite.Listing, variant *model.MessageVariant, now time.Time) (model.Message, error) {
	if l.SellerID != "" && d.Engine.IsSellerContacted(l.SellerID) {
		return model.Message{}, ErrSellerContacted
	}
	if d.Gate != nil {
		signals := d.Generator.AnalyzeListing(l.RawText)
		signals.ListingID = l.ID
		if res := d.Gate.Check(ctx, signals); !res.Passed {
			return model.Message{}, &RejectedError{ListingID: l.ID, Result: res}
		}
	}
	if err := checkBudget(ctx, d, now); err != nil {
		return model.Message{}, err
	}

	msg, err := d.Generator.Generate(ctx, l.RawText, l.ID, l.URL, variant)
	if err != nil {
		return model.Message{}, err
	}

	// nothing is registered until the channel took the message, so a failed
	// send leaves the seller open for a later attempt
	if err := send(ctx, d, l, msg); err != nil {
		return model.Message{}, err
	}
	if l.AddedAt.IsZero() {
		l.AddedAt = now
	}
	if err := d.DB.SaveListing(ctx, l); err != nil {
		return model.Message{}, err
	}
	d.Engine.Register(model.NewConversation(l.ID, l.URL, l.SellerID))
	if err := record(ctx, d, l, msg, now); err != nil {
		return model.Message{}, err
	}
	metrics.MessagesSent.WithLabelValues(msg.Stage.String()).Inc()
	logging.Info("outreach_started", map[string]any{"listing_id": l.ID, "variant": msg.Variant.String(), "attempt": msg.GenerationAttempt})
	return msg, nil
}

// HandleReply classifies a seller reply and records it.
func HandleReply(ctx context.Context, d Deps, listingID, text string, now time.Time) (model.ReplySentiment, error) {
	sentiment := d.Tracker.ClassifyReply(ctx, text)
	if err := d.Engine.RecordReply(listingID, sentiment, now); err != nil {
		return sentiment, err
	}
	metrics.Replies.WithLabelValues(string(sentiment)).Inc()
	putEvent(ctx, d, now, model.EventReply, map[string]any{"listing_id": listingID, "sentiment": string(sentiment)})
	logging.Info("reply_recorded", map[string]any{"listing_id": listingID, "sentiment": string(sentiment)})
	return sentiment, persist(ctx, d, listingID)
}

// RemoveListing stops all outreach for a listing that went offline.
func RemoveListing(ctx context.Context, d Deps, listingID string, now time.Time) error {
	if err := d.Engine.RecordListingRemoved(listingID); err != nil {
		return err
	}
	putEvent(ctx, d, now, model.EventListingRemoved, map[string]any{"listing_id": listingID})
	return persist(ctx, d, listingID)
}
