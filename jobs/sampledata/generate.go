// Package sampledata populates the event log with randomised on/off
// activity so a fresh install has something to chart.
package sampledata

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/upnepa/gridlog/core/logger"
	"github.com/upnepa/gridlog/core/model"
)

// Store is the slice of persistence the generator needs.
type Store interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	Latest(ctx context.Context, userID string) (*model.PowerEvent, error)
	CountByUserDate(ctx context.Context, userID, date string) (int, error)
	AppendBatch(ctx context.Context, evs []model.PowerEvent) error
}

// Options controls the shape of the generated data.
type Options struct {
	DaysBack  int
	MinPerDay int
	MaxPerDay int
	DryRun    bool
	// Seed fixes the random source; zero means time-based.
	Seed int64
}

// SetDefaults applies the standard generation window.
func (o *Options) SetDefaults() {
	if o.DaysBack <= 0 {
		o.DaysBack = 7
	}
	if o.MinPerDay <= 0 {
		o.MinPerDay = 2
	}
	if o.MaxPerDay < o.MinPerDay {
		o.MaxPerDay = 8
	}
}

// Generate creates randomised events for every user from DaysBack days ago
// through today. Days that already hold events are left alone, except for
// the oldest day which always gets a fill so the window is anchored. States
// alternate event to event, continuing from the user's latest logged state.
func Generate(ctx context.Context, store Store, opts Options, log logger.Logger) (int, error) {
	opts.SetDefaults()
	src := opts.Seed
	if src == 0 {
		src = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(src))
	now := time.Now().UTC()

	users, err := store.ListUsers(ctx)
	if err != nil {
		return 0, err
	}
	if len(users) == 0 {
		log.Warnf("no users found, nothing to generate")
		return 0, nil
	}
	log.Infof("generating random power events for %d users (days=%d, per-day=%d-%d)",
		len(users), opts.DaysBack, opts.MinPerDay, opts.MaxPerDay)

	total := 0
	var batch []model.PowerEvent
	for _, u := range users {
		last, err := store.Latest(ctx, u.Username)
		if err != nil {
			return total, err
		}
		state := model.EventOn
		if last != nil {
			state = last.Type
		} else if rng.Intn(2) == 0 {
			state = model.EventOff
		}

		for offset := opts.DaysBack; offset >= 0; offset-- {
			day := model.Day(now.AddDate(0, 0, -offset))
			existing, err := store.CountByUserDate(ctx, u.Username, model.DateOf(day))
			if err != nil {
				return total, err
			}
			if existing > 0 && offset < opts.DaysBack {
				continue
			}

			n := opts.MinPerDay + rng.Intn(opts.MaxPerDay-opts.MinPerDay+1)
			times := make([]time.Time, 0, n)
			for i := 0; i < n; i++ {
				hour := 6 + rng.Intn(18) // between 06:00 and 23:59
				minute := rng.Intn(60)
				times = append(times, day.Add(time.Duration(hour)*time.Hour+time.Duration(minute)*time.Minute))
			}
			sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
			for _, ts := range times {
				if state == model.EventOn {
					state = model.EventOff
				} else {
					state = model.EventOn
				}
				batch = append(batch, model.NewPowerEvent(u.Username, state, ts, u.Location, u.RegionID, true))
				total++
			}
		}
	}

	if !opts.DryRun && len(batch) > 0 {
		if err := store.AppendBatch(ctx, batch); err != nil {
			return 0, err
		}
	}
	suffix := ""
	if opts.DryRun {
		suffix = " (dry-run)"
	}
	log.Infof("generated %d random power events%s", total, suffix)
	return total, nil
}
