// Package schedule holds the time arithmetic for when outreach may happen.
package schedule

import (
	"math/rand"
	"time"
)

// NextWindow returns the next full hour from now that is not a quiet hour.
func NextWindow(now time.Time, quietHours []int) time.Time {
	isQuiet := func(h int) bool {
		for _, q := range quietHours {
			if q == h {
				return true
			}
		}
		return false
	}
	for i := 0; i < 48; i++ { // search up to 2 days ahead
		cand := now.Add(time.Duration(i) * time.Hour)
		if !isQuiet(cand.Hour()) {
			return cand
		}
	}
	return now.Add(15 * time.Minute)
}

// ClampToSendWindow moves t into [startHour, endHour) of its own location.
// Early times go to startHour the same day, late times to startHour the next
// day, both with a random minute.
func ClampToSendWindow(t time.Time, startHour, endHour int, rnd *rand.Rand) time.Time {
	switch {
	case t.Hour() < startHour:
		return atHour(t, startHour, rnd.Intn(60))
	case t.Hour() >= endHour:
		return atHour(t.AddDate(0, 0, 1), startHour, rnd.Intn(60))
	}
	return t
}

// SkipSunday pushes a Sunday to Monday, keeping the time of day. The result
// is not checked again.
func SkipSunday(t time.Time) time.Time {
	if t.Weekday() == time.Sunday {
		return t.AddDate(0, 0, 1)
	}
	return t
}

// RandomDelay draws a uniform duration in [minDays, maxDays] days.
func RandomDelay(minDays, maxDays int, rnd *rand.Rand) time.Duration {
	lo := float64(minDays) * float64(24*time.Hour)
	hi := float64(maxDays) * float64(24*time.Hour)
	return time.Duration(lo + rnd.Float64()*(hi-lo))
}

// Between draws a uniform duration in [from, to].
func Between(from, to time.Duration, rnd *rand.Rand) time.Duration {
	if to <= from {
		return from
	}
	return from + time.Duration(rnd.Int63n(int64(to-from)+1))
}

func atHour(t time.Time, hour, minute int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, t.Location())
}
