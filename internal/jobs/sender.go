package jobs

import (
	"context"
	"sync"

	"outreach/internal/logging"
	"outreach/internal/model"
	"outreach/internal/store/sqlite"
)

// Sender hands a message to whatever channel reaches the seller.
type Sender interface {
	Send(ctx context.Context, l sqlite.Listing, msg model.Message) error
}

// LogSender only logs; used for dry runs.
type LogSender struct{}

func (LogSender) Send(_ context.Context, l sqlite.Listing, msg model.Message) error {
	logging.Info("message_dry_run", map[string]any{
		"listing_id": l.ID,
		"url":        l.URL,
		"stage":      msg.Stage.String(),
		"variant":    msg.Variant.String(),
		"text":       msg.Text,
	})
	return nil
}

// RecordingSender keeps every message in memory.
type RecordingSender struct {
	mu   sync.Mutex
	Sent []model.Message
}

func (r *RecordingSender) Send(_ context.Context, _ sqlite.Listing, msg model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sent = append(r.Sent, msg)
	return nil
}

func (r *RecordingSender) Messages() []model.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Message{}, r.Sent...)
}
