package timeline

import (
	"math"
	"sort"
	"time"

	"github.com/upnepa/gridlog/core/model"
)

// DailyBucket accumulates reconstructed ON hours for one calendar day.
// Buckets are ephemeral: built fresh per aggregation call, never persisted.
type DailyBucket struct {
	Date   time.Time
	Hours  float64
	Events []model.PowerEvent
}

// DayPoint is one chart entry. Hours are rounded to two decimals here and
// nowhere earlier, so rounding error never compounds during accumulation.
type DayPoint struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}

// Periods accepted by ComputeStats.
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// Reconstruct replays ascending events into per-day buckets using a single
// forward pass and one cursor for the open ON time.
//
// An ON event unconditionally overwrites the cursor, so an earlier ON with
// no matching OFF contributes nothing. An OFF with a set cursor closes the
// interval and books all its hours on the OFF event's own date, which means
// an interval crossing midnight is attributed entirely to the closing day.
// An OFF without a cursor is ignored. A cursor still set after the pass is
// an open interval, closed against now on the last event's date.
//
// Buckets come back ordered by actual date value and the returned total is
// the exact sum of all bucket hours.
func Reconstruct(events []model.PowerEvent, now time.Time) ([]DailyBucket, float64) {
	buckets := make(map[time.Time]*DailyBucket)
	bucket := func(day time.Time) *DailyBucket {
		b, ok := buckets[day]
		if !ok {
			b = &DailyBucket{Date: day}
			buckets[day] = b
		}
		return b
	}

	var currentOn *time.Time
	for _, ev := range events {
		day := model.Day(ev.Timestamp)
		b := bucket(day)
		b.Events = append(b.Events, ev)

		switch ev.Type {
		case model.EventOn:
			ts := ev.Timestamp
			currentOn = &ts
		case model.EventOff:
			if currentOn != nil {
				b.Hours += ev.Timestamp.Sub(*currentOn).Seconds() / 3600
				currentOn = nil
			}
		}
	}

	// Power still on: count hours up to now on the last event's date.
	if currentOn != nil && len(events) > 0 {
		last := model.Day(events[len(events)-1].Timestamp)
		bucket(last).Hours += now.Sub(*currentOn).Seconds() / 3600
	}

	out := make([]DailyBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	total := 0.0
	for _, b := range out {
		total += b.Hours
	}
	return out, total
}

// filterFrom keeps events whose calendar date is on or after cutoff.
func filterFrom(events []model.PowerEvent, cutoff time.Time) []model.PowerEvent {
	var out []model.PowerEvent
	for _, ev := range events {
		if !model.Day(ev.Timestamp).Before(cutoff) {
			out = append(out, ev)
		}
	}
	return out
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
