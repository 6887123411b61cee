package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/upnepa/gridlog/core/metrics"
)

// PromSink records power events and reconciliation ticks in Prometheus
// metrics.
type PromSink struct {
	events      *prometheus.CounterVec
	resolutions *prometheus.CounterVec
	tickSeconds prometheus.Histogram
	tickCreated prometheus.Counter
}

// NewPromSink registers the metrics on the default Prometheus registerer.
// The Prometheus server should be started separately.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "power_events_total",
		Help: "Total number of appended power events",
	}, []string{"event_type", "auto_generated", "region_id"})
	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "region_resolutions_total",
		Help: "Total number of location-to-region lookups",
	}, []string{"matched"})
	tickSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "reconcile_tick_duration_seconds",
		Help:    "Duration of one reconciliation pass over all regions",
		Buckets: prometheus.DefBuckets,
	})
	tickCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconcile_events_created_total",
		Help: "Synthetic events created by the reconciliation loop",
	})

	if err := reg.Register(events); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			events = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(resolutions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			resolutions = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(tickSeconds); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			tickSeconds = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(tickCreated); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			tickCreated = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		events:      events,
		resolutions: resolutions,
		tickSeconds: tickSeconds,
		tickCreated: tickCreated,
	}, nil
}

// RecordPowerEvents increments the counter for each appended event.
func (s *PromSink) RecordPowerEvents(recs []coremetrics.PowerEventRecord) error {
	for _, r := range recs {
		s.events.WithLabelValues(string(r.Type), strconv.FormatBool(r.AutoGenerated), r.RegionID).Inc()
	}
	return nil
}

// RecordTick observes tick duration and adds the created events.
func (s *PromSink) RecordTick(ev coremetrics.TickEvent) error {
	s.tickSeconds.Observe(ev.Duration.Seconds())
	if !ev.DryRun {
		s.tickCreated.Add(float64(ev.EventsCreated))
	}
	return nil
}

// RecordResolution increments the lookup counter.
func (s *PromSink) RecordResolution(ev coremetrics.ResolutionEvent) error {
	s.resolutions.WithLabelValues(strconv.FormatBool(ev.Matched)).Inc()
	return nil
}
