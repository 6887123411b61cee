package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClockTime is a time of day with minute precision, counted as minutes
// since midnight. It carries no date and no zone.
type ClockTime int

// ParseClock parses a "HH:MM" string on a 24-hour clock.
func ParseClock(s string) (ClockTime, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("clock time %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("clock time %q: bad hour", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock time %q: bad minute", s)
	}
	return ClockTime(h*60 + m), nil
}

// ClockOf returns the time of day of t.
func ClockOf(t time.Time) ClockTime { return ClockTime(t.Hour()*60 + t.Minute()) }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// MarshalJSON encodes the clock time as a "HH:MM" string.
func (c ClockTime) MarshalJSON() ([]byte, error) { return json.Marshal(c.String()) }

// UnmarshalJSON decodes a "HH:MM" string, rejecting malformed values so a
// bad schedule surfaces when the catalog is loaded, never during evaluation.
func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ScheduleBlock is one expected-supply window in a region's daily template.
// A block whose start is after its end wraps past midnight.
type ScheduleBlock struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// RegionProfile describes one distribution company's service area and its
// templated supply schedule. Profiles are read-only at runtime; only the
// seed process creates or updates them.
type RegionProfile struct {
	ID                     string          `json:"id"`
	Name                   string          `json:"disco_name"`
	States                 []string        `json:"states"`
	Keywords               []string        `json:"keywords"`
	AvgOfftakeMWh          float64         `json:"avg_offtake_mwh_per_hour"`
	AvgAvailableMWh        float64         `json:"avg_available_pcc_mwh_per_hour"`
	UtilisationPercent     float64         `json:"utilisation_percent"`
	EstimatedDailyMWh      float64         `json:"estimated_daily_mwh"`
	EstimatedFullLoadHours float64         `json:"estimated_full_load_hours"`
	ScheduleTemplate       []ScheduleBlock `json:"schedule_template"`
	Source                 string          `json:"source"`
}
