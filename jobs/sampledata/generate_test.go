package sampledata

import (
	"context"
	"testing"
	"time"

	"github.com/upnepa/gridlog/core/model"
	"github.com/upnepa/gridlog/infra/logger"
)

type memStore struct {
	users  []model.User
	byUser map[string][]model.PowerEvent
}

func newMemStore(users ...model.User) *memStore {
	return &memStore{users: users, byUser: make(map[string][]model.PowerEvent)}
}

func (m *memStore) ListUsers(context.Context) ([]model.User, error) { return m.users, nil }

func (m *memStore) Latest(_ context.Context, userID string) (*model.PowerEvent, error) {
	evs := m.byUser[userID]
	if len(evs) == 0 {
		return nil, nil
	}
	return &evs[len(evs)-1], nil
}

func (m *memStore) CountByUserDate(_ context.Context, userID, date string) (int, error) {
	n := 0
	for _, ev := range m.byUser[userID] {
		if ev.Date == date {
			n++
		}
	}
	return n, nil
}

func (m *memStore) AppendBatch(_ context.Context, evs []model.PowerEvent) error {
	for _, ev := range evs {
		m.byUser[ev.UserID] = append(m.byUser[ev.UserID], ev)
	}
	return nil
}

func TestGenerateCoversWindow(t *testing.T) {
	store := newMemStore(model.User{Username: "ada", Location: "Lekki", RegionID: "eko"})
	opts := Options{DaysBack: 3, MinPerDay: 2, MaxPerDay: 4, Seed: 42}
	count, err := Generate(context.Background(), store, opts, logger.NopLogger{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	events := store.byUser["ada"]
	if len(events) != count {
		t.Fatalf("persisted %d events, reported %d", len(events), count)
	}
	// 4 days inclusive, 2-4 events each.
	if count < 8 || count > 16 {
		t.Errorf("count = %d, want 8..16", count)
	}
	for _, ev := range events {
		if !ev.AutoGenerated {
			t.Fatalf("event not flagged auto: %+v", ev)
		}
		if ev.RegionID != "eko" || ev.Location != "Lekki" {
			t.Errorf("user fields not carried: %+v", ev)
		}
		if h := ev.Timestamp.Hour(); h < 6 {
			t.Errorf("event before 06:00: %v", ev.Timestamp)
		}
	}
}

func TestGenerateAlternatesStatesWithinDay(t *testing.T) {
	store := newMemStore(model.User{Username: "ada"})
	opts := Options{DaysBack: 2, MinPerDay: 4, MaxPerDay: 6, Seed: 7}
	if _, err := Generate(context.Background(), store, opts, logger.NopLogger{}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	events := store.byUser["ada"]
	for i := 1; i < len(events); i++ {
		if events[i].Date != events[i-1].Date {
			continue
		}
		if events[i].Type == events[i-1].Type {
			t.Fatalf("consecutive same-day events share type at %d: %+v %+v",
				i, events[i-1], events[i])
		}
	}
}

func TestGenerateSkipsPopulatedDays(t *testing.T) {
	store := newMemStore(model.User{Username: "ada"})
	yesterday := model.Day(time.Now().UTC().AddDate(0, 0, -1)).Add(8 * time.Hour)
	store.byUser["ada"] = []model.PowerEvent{
		model.NewPowerEvent("ada", model.EventOn, yesterday, "", "", false),
	}
	opts := Options{DaysBack: 3, MinPerDay: 2, MaxPerDay: 2, Seed: 1}
	if _, err := Generate(context.Background(), store, opts, logger.NopLogger{}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	date := model.DateOf(yesterday)
	n := 0
	for _, ev := range store.byUser["ada"] {
		if ev.Date == date {
			n++
		}
	}
	if n != 1 {
		t.Errorf("populated day gained events: %d entries for %s", n, date)
	}
}

func TestGenerateDryRunPersistsNothing(t *testing.T) {
	store := newMemStore(model.User{Username: "ada"})
	opts := Options{DaysBack: 2, MinPerDay: 2, MaxPerDay: 3, DryRun: true, Seed: 9}
	count, err := Generate(context.Background(), store, opts, logger.NopLogger{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if count == 0 {
		t.Fatal("dry run counted nothing")
	}
	if len(store.byUser["ada"]) != 0 {
		t.Errorf("dry run persisted %d events", len(store.byUser["ada"]))
	}
}

func TestGenerateNoUsers(t *testing.T) {
	store := newMemStore()
	count, err := Generate(context.Background(), store, Options{Seed: 3}, logger.NopLogger{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}
