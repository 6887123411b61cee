package reconcile

import (
	"context"
	"time"

	"github.com/upnepa/gridlog/core/logger"
	"github.com/upnepa/gridlog/core/metrics"
	"github.com/upnepa/gridlog/core/model"
	"github.com/upnepa/gridlog/core/region"
	"github.com/upnepa/gridlog/core/store"
)

// Reconciler keeps every user's stream consistent with the expected grid
// state of their region. It is a single-threaded periodic task: one tick
// runs to completion before the next starts, and it assumes it is the sole
// writer of auto-generated events between its reads of "latest event".
type Reconciler struct {
	cfg     Config
	events  store.EventStore
	users   store.UserDirectory
	catalog store.RegionCatalog
	log     logger.Logger
	sink    metrics.Sink
}

// New creates a Reconciler. A nil sink disables metrics.
func New(cfg Config, events store.EventStore, users store.UserDirectory, catalog store.RegionCatalog, log logger.Logger, sink metrics.Sink) *Reconciler {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Reconciler{cfg: cfg, events: events, users: users, catalog: catalog, log: log, sink: sink}
}

// Tick evaluates every region once against now and appends a synthetic
// event for each user whose latest event disagrees with the expected
// state. Running the same tick twice with no intervening manual events
// creates nothing the second time. It returns the number of events created
// (or, in dry-run, the number that would have been).
//
// A region's failure is logged and does not abort the remaining regions.
func (r *Reconciler) Tick(ctx context.Context, now time.Time, dryRun bool) (int, error) {
	start := time.Now()
	regions, err := r.catalog.List(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, reg := range regions {
		n, err := r.syncRegion(ctx, reg, now, dryRun)
		if err != nil {
			r.log.Errorf("sync region %s: %v", reg.ID, err)
			continue
		}
		total += n
	}

	if rec, ok := r.sink.(metrics.TickRecorder); ok {
		if err := rec.RecordTick(metrics.TickEvent{
			Regions:       len(regions),
			EventsCreated: total,
			DryRun:        dryRun,
			Duration:      time.Since(start),
			Time:          now,
		}); err != nil {
			r.log.Warnf("record tick: %v", err)
		}
	}

	suffix := ""
	if dryRun {
		suffix = " (dry-run)"
	}
	r.log.Infof("processed %d regions, queued %d events%s", len(regions), total, suffix)
	return total, nil
}

// syncRegion appends the region's pending events in one batch and records
// them on the metrics sink. Users whose latest event already matches the
// desired state are skipped, which is what makes the tick idempotent.
func (r *Reconciler) syncRegion(ctx context.Context, reg model.RegionProfile, now time.Time, dryRun bool) (int, error) {
	desired := model.EventOff
	if region.ShouldBeOn(reg, model.ClockOf(now)) {
		desired = model.EventOn
	}

	users, err := r.users.UsersByRegion(ctx, reg.ID)
	if err != nil {
		return 0, err
	}
	if len(users) == 0 {
		return 0, nil
	}

	var batch []model.PowerEvent
	for _, u := range users {
		last, err := r.events.Latest(ctx, u.Username)
		if err != nil {
			return 0, err
		}
		if last != nil && last.Type == desired {
			continue
		}
		batch = append(batch, model.NewPowerEvent(u.Username, desired, now, u.Location, reg.ID, true))
	}
	if len(batch) == 0 || dryRun {
		return len(batch), nil
	}
	if err := r.events.AppendBatch(ctx, batch); err != nil {
		return 0, err
	}
	recs := make([]metrics.PowerEventRecord, 0, len(batch))
	for _, ev := range batch {
		recs = append(recs, metrics.PowerEventRecord{
			UserID:        ev.UserID,
			Type:          ev.Type,
			RegionID:      ev.RegionID,
			AutoGenerated: ev.AutoGenerated,
			Time:          ev.Timestamp,
		})
	}
	if err := r.sink.RecordPowerEvents(recs); err != nil {
		r.log.Warnf("record power events: %v", err)
	}
	return len(batch), nil
}

// Run drives Tick on the configured interval until ctx is cancelled. The
// shutdown signal is observed between ticks only; a running tick always
// completes.
func (r *Reconciler) Run(ctx context.Context) error {
	interval := time.Duration(r.cfg.IntervalSeconds) * time.Second
	if delay := time.Duration(r.cfg.InitialDelaySeconds) * time.Second; delay > 0 {
		r.log.Infof("waiting %s before first tick", delay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}

	iteration := 0
	for {
		iteration++
		if _, err := r.Tick(ctx, time.Now().UTC(), r.cfg.DryRun); err != nil {
			// Keep the loop alive; the next tick may succeed.
			r.log.Errorf("tick %d: %v", iteration, err)
		}
		if r.cfg.MaxIterations > 0 && iteration >= r.cfg.MaxIterations {
			r.log.Infof("reached max iterations (%d), stopping", r.cfg.MaxIterations)
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}
