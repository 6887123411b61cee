package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/upnepa/gridlog/core/model"
)

func sampleEvents(t *testing.T) []model.PowerEvent {
	t.Helper()
	ts := time.Date(2025, 3, 12, 8, 30, 0, 0, time.UTC)
	return []model.PowerEvent{
		model.NewPowerEvent("ada", model.EventOn, ts, "Lekki, Lagos", "eko", false),
		model.NewPowerEvent("ada", model.EventOff, ts.Add(2*time.Hour), "Lekki, Lagos", "eko", true),
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleEvents(t)); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	if lines[0] != "user_id,event_type,timestamp,date,location,region_id,auto_generated" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "2025-03-12T08:30:00Z") {
		t.Errorf("row = %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], "true") {
		t.Errorf("auto flag missing from %q", lines[2])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	events := sampleEvents(t)
	if err := WriteJSON(&buf, events); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out []model.PowerEvent
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 || out[0].ID != events[0].ID {
		t.Errorf("round trip mismatch: %+v", out)
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "user_id,event_type,timestamp,date,location,region_id,auto_generated" {
		t.Errorf("empty export = %q", got)
	}
}
