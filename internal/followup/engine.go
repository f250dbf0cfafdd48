// Package followup tracks every conversation and decides when the next
// follow-up is due.
package followup

import (
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"outreach/internal/config"
	"outreach/internal/metrics"
	"outreach/internal/model"
	"outreach/internal/schedule"
)

var ErrUnknownListing = errors.New("unknown listing")

// Stats aggregates the in-memory conversation set.
type Stats struct {
	TotalConversations  int     `json:"total_conversations"`
	RepliesReceived     int     `json:"replies_received"`
	ReplyRate           float64 `json:"reply_rate"`
	ActiveConversations int     `json:"active_conversations"`
	NegativeReplies     int     `json:"negative_replies"`
	SellersContacted    int     `json:"sellers_contacted"`
}

// Engine owns the conversation map and the set of contacted sellers. The
// seller set is shared by every conversation, whichever account registered it.
type Engine struct {
	cfg config.FollowUpConfig
	loc *time.Location

	mu            sync.Mutex
	rnd           *rand.Rand
	conversations map[string]*model.ConversationState
	order         []string
	sellers       map[string]struct{}
}

// New returns an engine scheduling in loc. rnd must not be nil.
func New(cfg config.FollowUpConfig, loc *time.Location, rnd *rand.Rand) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		cfg:           cfg,
		loc:           loc,
		rnd:           rnd,
		conversations: map[string]*model.ConversationState{},
		sellers:       map[string]struct{}{},
	}
}

// Register starts tracking a conversation, replacing any earlier state for
// the same listing.
func (e *Engine) Register(state *model.ConversationState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.conversations[state.ListingID]; !ok {
		e.order = append(e.order, state.ListingID)
	}
	e.conversations[state.ListingID] = state
	if state.SellerID != "" {
		e.sellers[state.SellerID] = struct{}{}
	}
}

// Get returns a copy of the conversation state.
func (e *Engine) Get(listingID string) (model.ConversationState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.conversations[listingID]
	if !ok {
		return model.ConversationState{}, false
	}
	return snapshot(st), true
}

func (e *Engine) IsSellerContacted(sellerID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.sellers[sellerID]
	return ok
}

// ShouldFollowUp reports whether a follow-up may be sent at now.
func (e *Engine) ShouldFollowUp(listingID string, now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shouldFollowUp(listingID, now)
}

func (e *Engine) shouldFollowUp(listingID string, now time.Time) bool {
	st, ok := e.conversations[listingID]
	switch {
	case !ok:
		return false
	case st.ShouldStop():
		return false
	case st.ReplyReceived:
		return false
	case st.CurrentStage == model.StageDone:
		return false
	case st.FollowUpsSent() >= e.cfg.MaxFollowUpsPerSeller:
		return false
	case st.NextFollowUpAt == nil:
		return false
	case now.Before(*st.NextFollowUpAt):
		return false
	}
	return true
}

// NextStage is the stage of the next follow-up; false after FollowUp1 has
// been followed by FollowUp2.
func (e *Engine) NextStage(listingID string) (model.Stage, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.conversations[listingID]
	if !ok {
		return 0, false
	}
	return nextStage(st.CurrentStage)
}

func nextStage(s model.Stage) (model.Stage, bool) {
	switch s {
	case model.StageInitial:
		return model.StageFollowUp1, true
	case model.StageFollowUp1:
		return model.StageFollowUp2, true
	}
	return 0, false
}

// ScheduleNext sets next_followup_at for the upcoming stage. With no stage
// left the conversation moves to Done and false is returned.
func (e *Engine) ScheduleNext(listingID string, now time.Time) (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.conversations[listingID]
	if !ok {
		return time.Time{}, false
	}
	return e.scheduleNext(st, now)
}

func (e *Engine) scheduleNext(st *model.ConversationState, now time.Time) (time.Time, bool) {
	next, ok := nextStage(st.CurrentStage)
	if !ok {
		st.CurrentStage = model.StageDone
		st.NextFollowUpAt = nil
		return time.Time{}, false
	}

	minDays, maxDays := e.cfg.FollowUp1MinDays, e.cfg.FollowUp1MaxDays
	if next == model.StageFollowUp2 {
		minDays, maxDays = e.cfg.FollowUp2MinDays, e.cfg.FollowUp2MaxDays
	}
	at := now.In(e.loc).Add(schedule.RandomDelay(minDays, maxDays, e.rnd))
	at = schedule.ClampToSendWindow(at, e.cfg.SendWindowStartHour, e.cfg.SendWindowEndHour, e.rnd)
	at = schedule.SkipSunday(at)

	st.NextFollowUpAt = &at
	metrics.FollowUpsScheduled.WithLabelValues(next.String()).Inc()
	return at, true
}

// RecordMessageSent appends msg, advances the stage to msg.Stage and
// schedules the next follow-up.
func (e *Engine) RecordMessageSent(listingID string, msg model.Message, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.conversations[listingID]
	if !ok {
		return errors.Wrap(ErrUnknownListing, listingID)
	}
	st.MessagesSent = append(st.MessagesSent, msg)
	st.LastMessageAt = &now
	if st.FirstContactAt == nil {
		first := now
		st.FirstContactAt = &first
	}
	if msg.Stage > st.CurrentStage && msg.Stage != model.StageDone {
		st.CurrentStage = msg.Stage
	}
	e.scheduleNext(st, now)
	return nil
}

// RecordReply stores the reply and cancels any pending follow-up. Negative
// replies end the conversation.
func (e *Engine) RecordReply(listingID string, sentiment model.ReplySentiment, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.conversations[listingID]
	if !ok {
		return errors.Wrap(ErrUnknownListing, listingID)
	}
	st.ReplyReceived = true
	st.ReplyAt = &now
	st.ReplySentiment = sentiment
	st.NextFollowUpAt = nil
	if sentiment.IsNegative() {
		st.ConversationActive = false
	}
	return nil
}

func (e *Engine) RecordListingRemoved(listingID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.conversations[listingID]
	if !ok {
		return errors.Wrap(ErrUnknownListing, listingID)
	}
	st.ListingStillActive = false
	st.ConversationActive = false
	st.NextFollowUpAt = nil
	return nil
}

// DueFollowUps lists listings whose follow-up is due, in registration order.
func (e *Engine) DueFollowUps(now time.Time) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return lo.Filter(e.order, func(id string, _ int) bool {
		st := e.conversations[id]
		return e.shouldFollowUp(id, now) && st.NextFollowUpAt != nil && !now.Before(*st.NextFollowUpAt)
	})
}

func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	all := lo.Values(e.conversations)
	s := Stats{
		TotalConversations:  len(all),
		RepliesReceived:     lo.CountBy(all, func(c *model.ConversationState) bool { return c.ReplyReceived }),
		ActiveConversations: lo.CountBy(all, func(c *model.ConversationState) bool { return c.ConversationActive }),
		NegativeReplies:     lo.CountBy(all, func(c *model.ConversationState) bool { return c.ReplySentiment.IsNegative() }),
		SellersContacted:    len(e.sellers),
	}
	if s.TotalConversations > 0 {
		s.ReplyRate = float64(s.RepliesReceived) / float64(s.TotalConversations)
	}
	return s
}

// Conversations returns copies of all states in registration order.
func (e *Engine) Conversations() []model.ConversationState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return lo.Map(e.order, func(id string, _ int) model.ConversationState {
		return snapshot(e.conversations[id])
	})
}

func snapshot(st *model.ConversationState) model.ConversationState {
	c := *st
	c.MessagesSent = append([]model.Message{}, st.MessagesSent...)
	return c
}
