package model

import "time"

// ConversationState tracks outreach to a single listing/seller.
type ConversationState struct {
	ListingID    string    `json:"listing_id"`
	ListingURL   string    `json:"listing_url"`
	SellerID     string    `json:"seller_id"`
	MessagesSent []Message `json:"messages_sent"`
	CurrentStage Stage     `json:"current_stage"`

	FirstContactAt *time.Time `json:"first_contact_at,omitempty"`
	LastMessageAt  *time.Time `json:"last_message_at,omitempty"`
	NextFollowUpAt *time.Time `json:"next_followup_at,omitempty"`

	ReplyReceived      bool           `json:"reply_received"`
	ReplyAt            *time.Time     `json:"reply_at,omitempty"`
	ReplySentiment     ReplySentiment `json:"reply_sentiment,omitempty"`
	ConversationActive bool           `json:"conversation_active"`
	ListingStillActive bool           `json:"listing_still_active"`
}

// NewConversation returns an active conversation at the initial stage.
func NewConversation(listingID, listingURL, sellerID string) *ConversationState {
	return &ConversationState{
		ListingID:          listingID,
		ListingURL:         listingURL,
		SellerID:           sellerID,
		MessagesSent:       []Message{},
		CurrentStage:       StageInitial,
		ConversationActive: true,
		ListingStillActive: true,
	}
}

// ShouldStop reports whether all further outreach must be suppressed.
func (c *ConversationState) ShouldStop() bool {
	switch {
	case !c.ConversationActive:
		return true
	case !c.ListingStillActive:
		return true
	case c.CurrentStage == StageDone:
		return true
	case c.ReplySentiment.IsNegative():
		return true
	}
	return false
}

// FollowUpsSent counts messages after the initial one.
func (c *ConversationState) FollowUpsSent() int {
	if len(c.MessagesSent) == 0 {
		return 0
	}
	return len(c.MessagesSent) - 1
}

// LastMessage returns the most recent message, if any.
func (c *ConversationState) LastMessage() (Message, bool) {
	if len(c.MessagesSent) == 0 {
		return Message{}, false
	}
	return c.MessagesSent[len(c.MessagesSent)-1], true
}
