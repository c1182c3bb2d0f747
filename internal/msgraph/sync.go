package msgraph

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Tiliavir/tclock/internal/model"
	"github.com/Tiliavir/tclock/internal/shifts"
	"github.com/Tiliavir/tclock/internal/storage"
	"github.com/Tiliavir/tclock/internal/timecalc"
)

// SyncResult holds counters for a sync operation.
type SyncResult struct {
	Imported int
	Skipped  int
	Updated  int
	Errors   int
}

// SyncOptions configures a sync run.
type SyncOptions struct {
	Base     string
	Employee string
	// Location decides which day file a swipe is stored in.
	Location *time.Location
	// Timezone is the IANA zone of zone-less Graph times. Empty = UTC.
	Timezone string
	DryRun   bool
	// Out receives one progress line per event. Nil means stdout.
	Out    io.Writer
	Logger *zap.Logger
}

// parseGraphTime parses a Graph API dateTime string in the given timezone.
// Graph returns times like "2026-02-27T09:00:00.0000000" without a zone suffix
// when a Prefer: outlook.timezone header is set.
func parseGraphTime(dt, tz string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, dt); err == nil {
		return t, nil
	}

	loc := time.UTC
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}

	for _, layout := range []string{
		"2006-01-02T15:04:05.0000000",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, dt, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse graph time %q", dt)
}

// shouldSkip returns true if the event does not count as worked time.
func shouldSkip(event CalendarEvent) bool {
	if event.IsCancelled {
		return true
	}
	if event.IsAllDay {
		return true
	}
	if event.Sensitivity == "private" {
		return true
	}
	if event.ShowAs == "free" {
		return true
	}
	if event.Start.DateTime == "" || event.End.DateTime == "" {
		return true
	}
	return false
}

// MapEvent converts a calendar event into the clock-in and clock-out
// records of employee. The records carry the event ID with an "#in" or
// "#out" suffix so a later sync finds them again.
func MapEvent(event CalendarEvent, timezone, employee string) (in, out model.ClockRecord, err error) {
	start, err := parseGraphTime(event.Start.DateTime, timezone)
	if err != nil {
		return in, out, fmt.Errorf("parsing start time: %w", err)
	}
	end, err := parseGraphTime(event.End.DateTime, timezone)
	if err != nil {
		return in, out, fmt.Errorf("parsing end time: %w", err)
	}
	if end.Before(start) {
		return in, out, &shifts.InvalidIntervalError{Start: start, End: end}
	}

	in = model.ClockRecord{
		ExternalID: event.ID + "#in",
		Employee:   employee,
		Timestamp:  start.Unix(),
		Source:     model.SourceOutlook,
	}
	out = model.ClockRecord{
		ExternalID: event.ID + "#out",
		Employee:   employee,
		Timestamp:  end.Unix(),
		ClockOut:   true,
		Source:     model.SourceOutlook,
	}
	return in, out, nil
}

// SyncEvents writes the clock pairs of events to storage and prints one
// line per event. Events already stored unchanged are counted as skipped.
func SyncEvents(events []CalendarEvent, opts SyncOptions) (SyncResult, error) {
	var result SyncResult
	w := opts.Out
	if w == nil {
		w = os.Stdout
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	for _, event := range events {
		if shouldSkip(event) {
			log.Debug("skipping event", zap.String("id", event.ID), zap.String("subject", event.Subject))
			continue
		}

		in, out, err := MapEvent(event, opts.Timezone, opts.Employee)
		if err != nil {
			fmt.Fprintf(w, "  ! Error mapping event %q: %v\n", event.Subject, err)
			result.Errors++
			continue
		}

		outcomes := make([]storage.Outcome, 0, 2)
		var upsertErr error
		for _, rec := range []model.ClockRecord{in, out} {
			o, err := storage.UpsertExternal(opts.Base, opts.Location, rec, opts.DryRun)
			if err != nil {
				upsertErr = err
				break
			}
			outcomes = append(outcomes, o)
		}
		if upsertErr != nil {
			fmt.Fprintf(w, "  ! Error saving %q: %v\n", event.Subject, upsertErr)
			log.Warn("outlook upsert failed", zap.String("id", event.ID), zap.Error(upsertErr))
			result.Errors++
			continue
		}

		dur := timecalc.FormatDuration(out.Timestamp - in.Timestamp)
		switch combine(outcomes) {
		case storage.Unchanged:
			fmt.Fprintf(w, "  - Skipped:  %s (already exists)\n", event.Subject)
			result.Skipped++
		case storage.Updated:
			fmt.Fprintf(w, "  ↑ Updated:  %s (%s)\n", event.Subject, dur)
			result.Updated++
		default:
			fmt.Fprintf(w, "  ✓ Imported: %s (%s)\n", event.Subject, dur)
			result.Imported++
		}
	}

	return result, nil
}

// combine reduces the outcomes of an event's two records. Any change to a
// previously stored pair is an update.
func combine(outcomes []storage.Outcome) storage.Outcome {
	created, unchanged := 0, 0
	for _, o := range outcomes {
		switch o {
		case storage.Created:
			created++
		case storage.Unchanged:
			unchanged++
		}
	}
	switch {
	case unchanged == len(outcomes):
		return storage.Unchanged
	case created == len(outcomes):
		return storage.Created
	}
	return storage.Updated
}
