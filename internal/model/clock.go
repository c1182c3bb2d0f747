package model

import "time"

// ClockEvent is a single clock-in or clock-out swipe.
type ClockEvent struct {
	Timestamp int64 `json:"timestamp"`
	ClockOut  bool  `json:"out"`
}

// Time returns the event timestamp in loc.
func (e ClockEvent) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(e.Timestamp, 0).In(loc)
}

// Record sources.
const (
	SourceManual  = "manual"
	SourceImport  = "import"
	SourceAmend   = "amend"
	SourceOutlook = "outlook"
)

// ClockRecord is a stored clock event for one employee.
type ClockRecord struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id,omitempty"`
	Employee   string `json:"employee"`
	Timestamp  int64  `json:"timestamp"`
	ClockOut   bool   `json:"out"`
	Source     string `json:"source"`
}

// Event strips the record down to the fields shift reconstruction needs.
func (r ClockRecord) Event() ClockEvent {
	return ClockEvent{Timestamp: r.Timestamp, ClockOut: r.ClockOut}
}

// Events converts records to clock events, preserving order.
func Events(records []ClockRecord) []ClockEvent {
	events := make([]ClockEvent, len(records))
	for i, r := range records {
		events[i] = r.Event()
	}
	return events
}

// DayFile is the top-level structure stored in each daily JSON file.
type DayFile struct {
	Date    string        `json:"date"`
	Records []ClockRecord `json:"records"`
}
