package analytics

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"outreach/internal/model"
)

// HourlyActivity aggregates events into per-hour buckets in loc.
func HourlyActivity(events []model.Event, loc *time.Location) map[time.Time]map[string]int {
	if loc == nil {
		loc = time.UTC
	}
	buckets := make(map[time.Time]map[string]int)
	for _, e := range events {
		ts := e.Timestamp.In(loc)
		key := time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), 0, 0, 0, loc)
		if _, ok := buckets[key]; !ok {
			buckets[key] = make(map[string]int)
		}
		buckets[key][e.Type]++
	}
	return buckets
}

// SortedBucketKeys returns sorted hour keys.
func SortedBucketKeys(m map[time.Time]map[string]int) []time.Time {
	keys := make([]time.Time, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	return keys
}

// SentPerHour counts sent messages by local hour of day (0-23) over all
// conversations.
func SentPerHour(convs []model.ConversationState, loc *time.Location) [24]int {
	if loc == nil {
		loc = time.UTC
	}
	var out [24]int
	for _, c := range convs {
		for _, m := range c.MessagesSent {
			if m.GeneratedAt.IsZero() {
				continue
			}
			out[m.GeneratedAt.In(loc).Hour()]++
		}
	}
	return out
}

// ReplyRateByVariant is the share of conversations whose initial message
// used a variant and that received any reply.
func ReplyRateByVariant(convs []model.ConversationState) map[model.MessageVariant]float64 {
	started := lo.Filter(convs, func(c model.ConversationState, _ int) bool { return len(c.MessagesSent) > 0 })
	groups := lo.GroupBy(started, func(c model.ConversationState) model.MessageVariant { return c.MessagesSent[0].Variant })
	return lo.MapValues(groups, func(cs []model.ConversationState, _ model.MessageVariant) float64 {
		replied := lo.CountBy(cs, func(c model.ConversationState) bool { return c.ReplyReceived })
		return float64(replied) / float64(len(cs))
	})
}
