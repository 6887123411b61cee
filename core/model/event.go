package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a power transition as perceived by a user.
type EventType string

const (
	EventOn  EventType = "on"
	EventOff EventType = "off"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool { return t == EventOn || t == EventOff }

// PowerEvent is one timestamped ON/OFF transition in a user's stream.
// Events are immutable once appended. Consecutive events of the same type
// are legal; the timeline reconstruction resolves them.
type PowerEvent struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Type          EventType `json:"event_type"`
	Timestamp     time.Time `json:"timestamp"`
	Date          string    `json:"date"`
	Location      string    `json:"location,omitempty"`
	RegionID      string    `json:"region_id,omitempty"`
	AutoGenerated bool      `json:"auto_generated"`
}

// DateOf returns the calendar date of t in ISO form.
func DateOf(t time.Time) string { return t.Format("2006-01-02") }

// Day truncates t to midnight of its calendar day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// NewPowerEvent builds an event with a fresh id and the date derived from ts.
func NewPowerEvent(userID string, typ EventType, ts time.Time, location, regionID string, auto bool) PowerEvent {
	return PowerEvent{
		ID:            uuid.NewString(),
		UserID:        userID,
		Type:          typ,
		Timestamp:     ts,
		Date:          DateOf(ts),
		Location:      location,
		RegionID:      regionID,
		AutoGenerated: auto,
	}
}
