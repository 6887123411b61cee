package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/upnepa/gridlog/core/metrics"
	"github.com/upnepa/gridlog/core/model"
	"github.com/upnepa/gridlog/core/store"
	"github.com/upnepa/gridlog/infra/logger"
)

type memStore struct {
	byUser map[string][]model.PowerEvent
}

func newMemStore() *memStore {
	return &memStore{byUser: make(map[string][]model.PowerEvent)}
}

func (m *memStore) Append(_ context.Context, ev model.PowerEvent) error {
	m.byUser[ev.UserID] = append(m.byUser[ev.UserID], ev)
	return nil
}

func (m *memStore) AppendBatch(ctx context.Context, evs []model.PowerEvent) error {
	for _, ev := range evs {
		if err := m.Append(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func (m *memStore) ListByUser(_ context.Context, userID string, _, _ time.Time) ([]model.PowerEvent, error) {
	return m.byUser[userID], nil
}

func (m *memStore) Recent(_ context.Context, userID string, limit int) ([]model.PowerEvent, error) {
	evs := m.byUser[userID]
	if len(evs) > limit {
		evs = evs[len(evs)-limit:]
	}
	return evs, nil
}

func (m *memStore) Latest(_ context.Context, userID string) (*model.PowerEvent, error) {
	evs := m.byUser[userID]
	if len(evs) == 0 {
		return nil, nil
	}
	return &evs[len(evs)-1], nil
}

type fakeDirectory struct {
	byRegion map[string][]model.User
	err      error
}

func (f *fakeDirectory) CreateUser(context.Context, model.User) error { return nil }
func (f *fakeDirectory) GetUser(context.Context, string) (*model.User, error) {
	return nil, nil
}
func (f *fakeDirectory) UsersByRegion(_ context.Context, regionID string) ([]model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byRegion[regionID], nil
}

type fakeCatalog struct {
	regions []model.RegionProfile
}

func (f *fakeCatalog) List(context.Context) ([]model.RegionProfile, error) {
	return f.regions, nil
}
func (f *fakeCatalog) Get(context.Context, string) (*model.RegionProfile, error) {
	return nil, nil
}

type captureSink struct {
	metrics.NopSink
	ticks []metrics.TickEvent
}

func (c *captureSink) RecordTick(ev metrics.TickEvent) error {
	c.ticks = append(c.ticks, ev)
	return nil
}

func allDayRegion(id string) model.RegionProfile {
	return model.RegionProfile{
		ID:               id,
		ScheduleTemplate: []model.ScheduleBlock{{Start: 0, End: 1439}},
	}
}

func testReconciler(events *memStore, users store.UserDirectory, catalog *fakeCatalog, sink metrics.Sink) *Reconciler {
	cfg := Config{}
	cfg.SetDefaults()
	return New(cfg, events, users, catalog, logger.NopLogger{}, sink)
}

func TestTickCreatesEventsForStaleUsers(t *testing.T) {
	events := newMemStore()
	users := &fakeDirectory{byRegion: map[string][]model.User{
		"eko": {
			{Username: "ada", Location: "Lekki, Lagos", RegionID: "eko"},
			{Username: "bayo", Location: "VI, Lagos", RegionID: "eko"},
		},
	}}
	catalog := &fakeCatalog{regions: []model.RegionProfile{allDayRegion("eko")}}
	r := testReconciler(events, users, catalog, nil)

	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	count, err := r.Tick(context.Background(), now, false)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
	ev, err := events.Latest(context.Background(), "ada")
	if err != nil || ev == nil {
		t.Fatalf("latest: %v %v", ev, err)
	}
	if ev.Type != model.EventOn || !ev.AutoGenerated || ev.RegionID != "eko" {
		t.Errorf("unexpected event %+v", ev)
	}
	if ev.Date != "2025-03-12" {
		t.Errorf("date = %q", ev.Date)
	}
}

func TestTickIsIdempotent(t *testing.T) {
	events := newMemStore()
	users := &fakeDirectory{byRegion: map[string][]model.User{
		"eko": {{Username: "ada", RegionID: "eko"}},
	}}
	catalog := &fakeCatalog{regions: []model.RegionProfile{allDayRegion("eko")}}
	r := testReconciler(events, users, catalog, nil)

	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	if _, err := r.Tick(context.Background(), now, false); err != nil {
		t.Fatalf("first tick: %v", err)
	}
	count, err := r.Tick(context.Background(), now.Add(time.Hour), false)
	if err != nil {
		t.Fatalf("second tick: %v", err)
	}
	if count != 0 {
		t.Errorf("second tick created %d events, want 0", count)
	}
}

func TestTickDryRunPersistsNothing(t *testing.T) {
	events := newMemStore()
	users := &fakeDirectory{byRegion: map[string][]model.User{
		"eko": {{Username: "ada", RegionID: "eko"}},
	}}
	catalog := &fakeCatalog{regions: []model.RegionProfile{allDayRegion("eko")}}
	sink := &captureSink{}
	r := testReconciler(events, users, catalog, sink)

	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	count, err := r.Tick(context.Background(), now, true)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if len(events.byUser["ada"]) != 0 {
		t.Errorf("dry run persisted %d events", len(events.byUser["ada"]))
	}
	if len(sink.ticks) != 1 || !sink.ticks[0].DryRun || sink.ticks[0].EventsCreated != 1 {
		t.Errorf("tick record = %+v", sink.ticks)
	}
}

func TestTickSchedulesOffOutsideBlocks(t *testing.T) {
	events := newMemStore()
	_ = events.Append(context.Background(), model.NewPowerEvent("ada", model.EventOn,
		time.Date(2025, 3, 12, 8, 0, 0, 0, time.UTC), "", "eko", false))
	users := &fakeDirectory{byRegion: map[string][]model.User{
		"eko": {{Username: "ada", RegionID: "eko"}},
	}}
	morningOnly := model.RegionProfile{
		ID:               "eko",
		ScheduleTemplate: []model.ScheduleBlock{{Start: 6 * 60, End: 12 * 60}},
	}
	catalog := &fakeCatalog{regions: []model.RegionProfile{morningOnly}}
	r := testReconciler(events, users, catalog, nil)

	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)
	count, err := r.Tick(context.Background(), now, false)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	ev, _ := events.Latest(context.Background(), "ada")
	if ev.Type != model.EventOff {
		t.Errorf("type = %q, want off", ev.Type)
	}
}

// eventsOnlySink implements the base Sink interface and nothing else.
type eventsOnlySink struct {
	recs []metrics.PowerEventRecord
}

func (s *eventsOnlySink) RecordPowerEvents(recs []metrics.PowerEventRecord) error {
	s.recs = append(s.recs, recs...)
	return nil
}

func TestTickRecordsAppendedEventsOnSink(t *testing.T) {
	events := newMemStore()
	users := &fakeDirectory{byRegion: map[string][]model.User{
		"eko": {{Username: "ada", Location: "Lekki, Lagos", RegionID: "eko"}},
	}}
	catalog := &fakeCatalog{regions: []model.RegionProfile{allDayRegion("eko")}}
	sink := &eventsOnlySink{}
	r := testReconciler(events, users, catalog, sink)

	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	count, err := r.Tick(context.Background(), now, false)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	if len(sink.recs) != 1 {
		t.Fatalf("sink saw %d records, want 1", len(sink.recs))
	}
	rec := sink.recs[0]
	if rec.UserID != "ada" || rec.Type != model.EventOn || rec.RegionID != "eko" {
		t.Errorf("unexpected record %+v", rec)
	}
	if !rec.AutoGenerated {
		t.Error("record not flagged auto-generated")
	}
	if !rec.Time.Equal(now) {
		t.Errorf("record time = %v, want %v", rec.Time, now)
	}
}

func TestTickDryRunRecordsNothingOnSink(t *testing.T) {
	events := newMemStore()
	users := &fakeDirectory{byRegion: map[string][]model.User{
		"eko": {{Username: "ada", RegionID: "eko"}},
	}}
	catalog := &fakeCatalog{regions: []model.RegionProfile{allDayRegion("eko")}}
	sink := &eventsOnlySink{}
	r := testReconciler(events, users, catalog, sink)

	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	if _, err := r.Tick(context.Background(), now, true); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(sink.recs) != 0 {
		t.Errorf("dry run recorded %d events on sink", len(sink.recs))
	}
}

type failingDirectory struct {
	fakeDirectory
	failRegion string
}

func (f *failingDirectory) UsersByRegion(ctx context.Context, regionID string) ([]model.User, error) {
	if regionID == f.failRegion {
		return nil, errors.New("region store down")
	}
	return f.fakeDirectory.UsersByRegion(ctx, regionID)
}

func TestTickContinuesPastFailingRegion(t *testing.T) {
	events := newMemStore()
	users := &failingDirectory{
		fakeDirectory: fakeDirectory{byRegion: map[string][]model.User{
			"ikeja": {{Username: "bayo", RegionID: "ikeja"}},
		}},
		failRegion: "eko",
	}
	catalog := &fakeCatalog{regions: []model.RegionProfile{
		allDayRegion("eko"),
		allDayRegion("ikeja"),
	}}
	r := testReconciler(events, users, catalog, nil)

	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	count, err := r.Tick(context.Background(), now, false)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1 (healthy region only)", count)
	}
}

func TestRunStopsAtMaxIterations(t *testing.T) {
	events := newMemStore()
	users := &fakeDirectory{byRegion: map[string][]model.User{}}
	catalog := &fakeCatalog{}
	cfg := Config{Enabled: true, IntervalSeconds: 1, MaxIterations: 2}
	r := New(cfg, events, users, catalog, logger.NopLogger{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-ctx.Done():
		t.Fatal("run did not stop at max iterations")
	}
}
