package metrics

import (
	"time"

	"github.com/upnepa/gridlog/core/model"
)

// PowerEventRecord is one appended event, user-logged or synthetic.
type PowerEventRecord struct {
	UserID        string
	Type          model.EventType
	RegionID      string
	AutoGenerated bool
	Time          time.Time
}

// Sink records appended power events for observability purposes.
type Sink interface {
	RecordPowerEvents(recs []PowerEventRecord) error
}

// TickEvent captures one reconciliation pass over the region catalog.
type TickEvent struct {
	Regions       int
	EventsCreated int
	DryRun        bool
	Duration      time.Duration
	Time          time.Time
}

// TickRecorder is implemented by sinks able to record reconciliation ticks.
type TickRecorder interface {
	RecordTick(ev TickEvent) error
}

// ResolutionEvent captures one location-to-region lookup.
type ResolutionEvent struct {
	Matched  bool
	RegionID string
}

// ResolutionRecorder records region resolution outcomes.
type ResolutionRecorder interface {
	RecordResolution(ev ResolutionEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordPowerEvents([]PowerEventRecord) error { return nil }
func (NopSink) RecordTick(TickEvent) error                 { return nil }
func (NopSink) RecordResolution(ResolutionEvent) error     { return nil }
