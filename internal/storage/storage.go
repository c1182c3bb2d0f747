package storage

import (
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/Tiliavir/tclock/internal/model"
	"github.com/Tiliavir/tclock/internal/timecalc"
)

// BaseDir returns the root data directory (~/.tclock).
func BaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".tclock"), nil
}

// dayFilePath returns the path for the given date's JSON file.
func dayFilePath(base string, t time.Time) string {
	return filepath.Join(base, t.Format("2006"), t.Format("01"), t.Format("02")+".json")
}

// dayOf returns the calendar day a unix timestamp belongs to in loc.
func dayOf(ts int64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return timecalc.StartOfDay(time.Unix(ts, 0).In(loc))
}

// LoadDay loads the DayFile for the given date. Returns an empty DayFile if not found.
func LoadDay(base string, t time.Time) (model.DayFile, error) {
	path := dayFilePath(base, t)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return model.DayFile{Date: t.Format("2006-01-02"), Records: []model.ClockRecord{}}, nil
	}
	if err != nil {
		return model.DayFile{}, fmt.Errorf("storage error reading %s: %w", path, err)
	}

	var df model.DayFile
	if err := json.Unmarshal(data, &df); err != nil {
		// Back up corrupt file and abort.
		backupPath := path + ".corrupt"
		_ = os.Rename(path, backupPath)
		return model.DayFile{}, fmt.Errorf("corrupt JSON in %s (backed up to %s): %w", path, backupPath, err)
	}
	if df.Records == nil {
		df.Records = []model.ClockRecord{}
	}
	return df, nil
}

// SaveDay atomically writes a DayFile for the given date. Records are kept
// in timestamp order.
func SaveDay(base string, t time.Time, df model.DayFile) error {
	path := dayFilePath(base, t)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}

	df.Date = t.Format("2006-01-02")
	sortRecords(df.Records)
	data, err := json.MarshalIndent(df, "", "  ")
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}

	// Atomic write: write to temp file then rename.
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}

func sortRecords(records []model.ClockRecord) {
	slices.SortStableFunc(records, func(a, b model.ClockRecord) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})
}

// Append stores rec in the day file of its timestamp. An empty ID is
// filled in; the stored record is returned.
func Append(base string, loc *time.Location, rec model.ClockRecord) (model.ClockRecord, error) {
	day := dayOf(rec.Timestamp, loc)
	if rec.ID == "" {
		rec.ID = timecalc.GenerateID(time.Unix(rec.Timestamp, 0).In(day.Location()))
	}
	df, err := LoadDay(base, day)
	if err != nil {
		return model.ClockRecord{}, err
	}
	df.Records = append(df.Records, rec)
	if err := SaveDay(base, day, df); err != nil {
		return model.ClockRecord{}, err
	}
	return rec, nil
}

// LoadRange loads all records with a timestamp in [from, to], sorted by
// timestamp.
func LoadRange(base string, loc *time.Location, from, to time.Time) ([]model.ClockRecord, error) {
	if loc == nil {
		loc = time.Local
	}
	lo, hi := from.Unix(), to.Unix()
	var records []model.ClockRecord
	last := timecalc.StartOfDay(to.In(loc))
	for d := timecalc.StartOfDay(from.In(loc)); !d.After(last); d = timecalc.NextDay(d) {
		df, err := LoadDay(base, d)
		if err != nil {
			return nil, err
		}
		for _, r := range df.Records {
			if r.Timestamp >= lo && r.Timestamp <= hi {
				records = append(records, r)
			}
		}
	}
	sortRecords(records)
	return records, nil
}

// ForEmployee returns the records that belong to employee.
func ForEmployee(records []model.ClockRecord, employee string) []model.ClockRecord {
	var out []model.ClockRecord
	for _, r := range records {
		if r.Employee == employee {
			out = append(out, r)
		}
	}
	return out
}

// Employees returns the distinct employee names in records, sorted.
func Employees(records []model.ClockRecord) []string {
	seen := map[string]bool{}
	var names []string
	for _, r := range records {
		if !seen[r.Employee] {
			seen[r.Employee] = true
			names = append(names, r.Employee)
		}
	}
	slices.Sort(names)
	return names
}
