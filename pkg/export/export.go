package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/upnepa/gridlog/core/model"
)

// WriteJSON writes the events to w in JSON format.
func WriteJSON(w io.Writer, events []model.PowerEvent) error {
	enc := json.NewEncoder(w)
	return enc.Encode(events)
}

// WriteCSV writes the events to w in CSV format with the log headers.
func WriteCSV(w io.Writer, events []model.PowerEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"user_id", "event_type", "timestamp", "date", "location", "region_id", "auto_generated"}); err != nil {
		return err
	}
	for _, ev := range events {
		rec := []string{
			ev.UserID,
			string(ev.Type),
			ev.Timestamp.Format(time.RFC3339),
			ev.Date,
			ev.Location,
			ev.RegionID,
			strconv.FormatBool(ev.AutoGenerated),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
