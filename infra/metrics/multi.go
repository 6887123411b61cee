package metrics

import coremetrics "github.com/upnepa/gridlog/core/metrics"

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPowerEvents forwards the records to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordPowerEvents(recs []coremetrics.PowerEventRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordPowerEvents(recs); err != nil {
			return err
		}
	}
	return nil
}

// RecordTick forwards tick events to sinks that record them.
func (m *MultiSink) RecordTick(ev coremetrics.TickEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.TickRecorder); ok {
			if err := rec.RecordTick(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordResolution forwards lookup outcomes to sinks that record them.
func (m *MultiSink) RecordResolution(ev coremetrics.ResolutionEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.ResolutionRecorder); ok {
			if err := rec.RecordResolution(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
