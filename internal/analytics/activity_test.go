package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outreach/internal/model"
)

func TestHourlyActivity(t *testing.T) {
	base := time.Date(2025, 3, 4, 10, 15, 0, 0, time.UTC)
	events := []model.Event{
		{Timestamp: base, Type: model.EventMessageSent},
		{Timestamp: base.Add(20 * time.Minute), Type: model.EventMessageSent},
		{Timestamp: base.Add(30 * time.Minute), Type: model.EventReply},
		{Timestamp: base.Add(2 * time.Hour), Type: model.EventMessageSent},
	}
	b := HourlyActivity(events, time.UTC)
	keys := SortedBucketKeys(b)
	require.Len(t, keys, 2)
	assert.Equal(t, time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC), keys[0])
	assert.Equal(t, 1, b[keys[0]][model.EventReply])
	assert.Equal(t, 2, b[keys[0]][model.EventMessageSent])
	assert.Equal(t, 1, b[keys[1]][model.EventMessageSent])
}

func TestSentPerHour(t *testing.T) {
	at := func(h int) model.Message {
		return model.Message{GeneratedAt: time.Date(2025, 3, 4, h, 0, 0, 0, time.UTC)}
	}
	convs := []model.ConversationState{
		{MessagesSent: []model.Message{at(9), at(9), {}}},
		{MessagesSent: []model.Message{at(18)}},
	}
	got := SentPerHour(convs, time.FixedZone("X", 3600))
	assert.Equal(t, 2, got[10])
	assert.Equal(t, 1, got[19])
}

func TestReplyRateByVariant(t *testing.T) {
	conv := func(v model.MessageVariant, replied bool) model.ConversationState {
		return model.ConversationState{MessagesSent: []model.Message{{Variant: v}}, ReplyReceived: replied}
	}
	got := ReplyRateByVariant([]model.ConversationState{
		conv(model.QuietExpert, true),
		conv(model.QuietExpert, false),
		conv(model.ValueSpotter, true),
		{},
	})
	assert.Equal(t, map[model.MessageVariant]float64{model.QuietExpert: 0.5, model.ValueSpotter: 1}, got)
}
