package timeline

import (
	"context"
	"time"

	"github.com/upnepa/gridlog/core/model"
	"github.com/upnepa/gridlog/core/store"
)

// Stats is the per-period aggregation view.
type Stats struct {
	Period       string             `json:"period"`
	TotalHours   float64            `json:"total_hours"`
	DailyStats   []DayPoint         `json:"daily_stats"`
	RecentEvents []model.PowerEvent `json:"events"`
}

// LastEvent summarises the most recent event in a report.
type LastEvent struct {
	Type     model.EventType `json:"type"`
	HoursAgo float64         `json:"hours_ago"`
}

// Report holds the fixed 1/7/30-day window totals.
type Report struct {
	TodayHours    float64    `json:"today_hours"`
	WeekHours     float64    `json:"week_hours"`
	MonthHours    float64    `json:"month_hours"`
	AvgDailyHours float64    `json:"avg_daily_hours"`
	LastEvent     *LastEvent `json:"last_event"`
	TodayEvents   int        `json:"today_events"`
	WeekEvents    int        `json:"week_events"`
	MonthEvents   int        `json:"month_events"`
}

// periodCutoff returns the first calendar day included in the period.
// "day" covers today only; unknown periods fall back to a week.
func periodCutoff(period string, now time.Time) time.Time {
	switch period {
	case PeriodDay:
		return model.Day(now)
	case PeriodMonth:
		return model.Day(now.AddDate(0, 0, -30))
	default:
		return model.Day(now.AddDate(0, 0, -7))
	}
}

// ComputeStats reconstructs a user's ON intervals for the period and builds
// the display view: exact total, per-day series, and the trailing recentN
// raw events of the window.
func ComputeStats(events []model.PowerEvent, period string, now time.Time, recentN int) Stats {
	if period != PeriodDay && period != PeriodWeek && period != PeriodMonth {
		period = PeriodWeek
	}
	filtered := filterFrom(events, periodCutoff(period, now))
	buckets, total := Reconstruct(filtered, now)

	daily := make([]DayPoint, 0, len(buckets))
	for _, b := range buckets {
		daily = append(daily, DayPoint{Date: model.DateOf(b.Date), Hours: round2(b.Hours)})
	}

	recent := filtered
	if recentN > 0 && len(recent) > recentN {
		recent = recent[len(recent)-recentN:]
	}

	return Stats{
		Period:       period,
		TotalHours:   round2(total),
		DailyStats:   daily,
		RecentEvents: recent,
	}
}

// windowStats runs the reconstruction for the trailing daysBack window and
// returns the rounded total plus the number of events in the window.
func windowStats(events []model.PowerEvent, daysBack int, now time.Time) (float64, int) {
	filtered := filterFrom(events, model.Day(now.AddDate(0, 0, -daysBack)))
	_, total := Reconstruct(filtered, now)
	return round2(total), len(filtered)
}

// ComputeReport runs the identical reconstruction independently for the
// three fixed windows. The weekly average clamps to zero on a non-positive
// week total; that is a deliberate business rule, not a bug.
func ComputeReport(events []model.PowerEvent, now time.Time) Report {
	today, todayN := windowStats(events, 1, now)
	week, weekN := windowStats(events, 7, now)
	month, monthN := windowStats(events, 30, now)

	var last *LastEvent
	if len(events) > 0 {
		ev := events[len(events)-1]
		last = &LastEvent{
			Type:     ev.Type,
			HoursAgo: round1(now.Sub(ev.Timestamp).Seconds() / 3600),
		}
	}

	avg := 0.0
	if week > 0 {
		avg = round2(week / 7)
	}

	return Report{
		TodayHours:    today,
		WeekHours:     week,
		MonthHours:    month,
		AvgDailyHours: avg,
		LastEvent:     last,
		TodayEvents:   todayN,
		WeekEvents:    weekN,
		MonthEvents:   monthN,
	}
}

// Service answers stats and report queries over a user's stored stream.
type Service struct {
	events store.EventStore
}

// NewService returns a Service reading from events.
func NewService(events store.EventStore) *Service {
	return &Service{events: events}
}

// Stats fetches the user's full stream once and aggregates the period.
func (s *Service) Stats(ctx context.Context, userID, period string, now time.Time, recentN int) (Stats, error) {
	events, err := s.events.ListByUser(ctx, userID, time.Time{}, time.Time{})
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(events, period, now, recentN), nil
}

// Report fetches the user's full stream once and aggregates all windows.
func (s *Service) Report(ctx context.Context, userID string, now time.Time) (Report, error) {
	events, err := s.events.ListByUser(ctx, userID, time.Time{}, time.Time{})
	if err != nil {
		return Report{}, err
	}
	return ComputeReport(events, now), nil
}
