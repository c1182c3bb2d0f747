package storage_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/tclock/internal/model"
	"github.com/Tiliavir/tclock/internal/shifts"
	"github.com/Tiliavir/tclock/internal/storage"
)

func TestClockInOut(t *testing.T) {
	base := t.TempDir()
	loc := time.UTC
	start := time.Date(2026, 2, 27, 9, 0, 0, 0, loc)

	clockedIn, last, err := storage.Status(base, loc, "alice", start)
	require.NoError(t, err)
	assert.False(t, clockedIn)
	assert.Nil(t, last)

	_, err = storage.ClockOut(base, loc, "alice", start)
	assert.True(t, errors.Is(err, storage.ErrNotClockedIn))

	rec, err := storage.ClockIn(base, loc, "alice", start)
	require.NoError(t, err)
	assert.False(t, rec.ClockOut)
	assert.Equal(t, model.SourceManual, rec.Source)

	_, err = storage.ClockIn(base, loc, "alice", start.Add(time.Minute))
	assert.True(t, errors.Is(err, storage.ErrAlreadyClockedIn))

	// Another employee is independent.
	_, err = storage.ClockIn(base, loc, "bob", start.Add(time.Minute))
	require.NoError(t, err)

	clockedIn, last, err = storage.Status(base, loc, "alice", start.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, clockedIn)
	require.NotNil(t, last)
	assert.Equal(t, start.Unix(), last.Timestamp)

	_, err = storage.ClockOut(base, loc, "alice", start.Add(8*time.Hour))
	require.NoError(t, err)

	clockedIn, _, err = storage.Status(base, loc, "alice", start.Add(9*time.Hour))
	require.NoError(t, err)
	assert.False(t, clockedIn)
}

func TestClockOutAfterMidnight(t *testing.T) {
	base := t.TempDir()
	loc := time.UTC
	start := time.Date(2026, 2, 27, 22, 0, 0, 0, loc)

	_, err := storage.ClockIn(base, loc, "night", start)
	require.NoError(t, err)
	_, err = storage.ClockOut(base, loc, "night", start.Add(8*time.Hour))
	require.NoError(t, err)

	records, err := storage.LoadRange(base, loc, start.Add(-time.Hour), start.Add(9*time.Hour))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.False(t, records[0].ClockOut)
	assert.True(t, records[1].ClockOut)
}

func TestReplaceDay(t *testing.T) {
	base := t.TempDir()
	loc := time.UTC
	day := time.Date(2026, 2, 27, 0, 0, 0, 0, loc)

	for _, rec := range []model.ClockRecord{
		{Employee: "alice", Timestamp: day.Add(8 * time.Hour).Unix()},
		{Employee: "alice", Timestamp: day.Add(20 * time.Hour).Unix(), ClockOut: true},
		{Employee: "bob", Timestamp: day.Add(9 * time.Hour).Unix()},
	} {
		_, err := storage.Append(base, loc, rec)
		require.NoError(t, err)
	}

	err := storage.ReplaceDay(base, loc, "alice", day, []storage.Interval{
		{Start: day.Add(9 * time.Hour), End: day.Add(12 * time.Hour)},
		{Start: day.Add(13 * time.Hour), End: day.Add(17 * time.Hour)},
	})
	require.NoError(t, err)

	df, err := storage.LoadDay(base, day)
	require.NoError(t, err)
	alice := storage.ForEmployee(df.Records, "alice")
	require.Len(t, alice, 4)
	for _, r := range alice {
		assert.Equal(t, model.SourceAmend, r.Source)
	}
	assert.Len(t, storage.ForEmployee(df.Records, "bob"), 1, "other employees must be untouched")
}

func TestReplaceDayRejectsReversedInterval(t *testing.T) {
	base := t.TempDir()
	day := time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)
	_, err := storage.Append(base, time.UTC, model.ClockRecord{Employee: "alice", Timestamp: day.Add(8 * time.Hour).Unix()})
	require.NoError(t, err)

	err = storage.ReplaceDay(base, time.UTC, "alice", day, []storage.Interval{
		{Start: day.Add(12 * time.Hour), End: day.Add(9 * time.Hour)},
	})
	assert.True(t, errors.Is(err, shifts.ErrInvalidInterval))

	df, err := storage.LoadDay(base, day)
	require.NoError(t, err)
	assert.Len(t, df.Records, 1, "nothing is written when validation fails")
}

func TestReplaceDayOvernightSegment(t *testing.T) {
	base := t.TempDir()
	loc := time.UTC
	day := time.Date(2026, 2, 27, 0, 0, 0, 0, loc)

	err := storage.ReplaceDay(base, loc, "alice", day, []storage.Interval{
		{Start: day.Add(22 * time.Hour), End: day.Add(30 * time.Hour)},
	})
	require.NoError(t, err)

	first, err := storage.LoadDay(base, day)
	require.NoError(t, err)
	require.Len(t, first.Records, 1)
	assert.False(t, first.Records[0].ClockOut)

	next, err := storage.LoadDay(base, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, next.Records, 1)
	assert.True(t, next.Records[0].ClockOut)
	assert.NotEqual(t, first.Records[0].ID, next.Records[0].ID)
}

func TestReplaceDayUnreadableNextDayWritesNothing(t *testing.T) {
	base := t.TempDir()
	loc := time.UTC
	day := time.Date(2026, 2, 27, 0, 0, 0, 0, loc)
	for _, rec := range []model.ClockRecord{
		{Employee: "alice", Timestamp: day.Add(8 * time.Hour).Unix()},
		{Employee: "alice", Timestamp: day.Add(16 * time.Hour).Unix(), ClockOut: true},
	} {
		_, err := storage.Append(base, loc, rec)
		require.NoError(t, err)
	}
	before, err := storage.LoadDay(base, day)
	require.NoError(t, err)

	nextPath := filepath.Join(base, "2026", "02", "28.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(nextPath), 0o700))
	require.NoError(t, os.WriteFile(nextPath, []byte("{bad json"), 0o600))

	err = storage.ReplaceDay(base, loc, "alice", day, []storage.Interval{
		{Start: day.Add(22 * time.Hour), End: day.Add(30 * time.Hour)},
	})
	require.Error(t, err)

	after, err := storage.LoadDay(base, day)
	require.NoError(t, err)
	assert.Equal(t, before, after, "the amended day must be untouched")
}

func TestFirstRecord(t *testing.T) {
	base := t.TempDir()
	loc := time.UTC
	day := time.Date(2026, 2, 27, 0, 0, 0, 0, loc)

	first, err := storage.FirstRecord(base, loc, "alice", day)
	require.NoError(t, err)
	assert.Nil(t, first)

	for _, rec := range []model.ClockRecord{
		{Employee: "bob", Timestamp: day.Add(1 * time.Hour).Unix()},
		{Employee: "alice", Timestamp: day.Add(9 * time.Hour).Unix()},
		{Employee: "alice", Timestamp: day.Add(6 * time.Hour).Unix(), ClockOut: true},
	} {
		_, err := storage.Append(base, loc, rec)
		require.NoError(t, err)
	}

	first, err = storage.FirstRecord(base, loc, "alice", day.Add(12*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.True(t, first.ClockOut)
	assert.Equal(t, day.Add(6*time.Hour).Unix(), first.Timestamp)
}

func TestStatusAcrossSkippedMidnight(t *testing.T) {
	// 2022-09-11 starts at 01:00 in Santiago.
	loc, err := time.LoadLocation("America/Santiago")
	require.NoError(t, err)
	base := t.TempDir()

	_, err = storage.ClockIn(base, loc, "alice", time.Date(2022, 9, 11, 10, 0, 0, 0, loc))
	require.NoError(t, err)

	clockedIn, last, err := storage.Status(base, loc, "alice", time.Date(2022, 9, 12, 8, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.True(t, clockedIn)
	require.NotNil(t, last)
}

func TestUpsertExternal(t *testing.T) {
	base := t.TempDir()
	loc := time.UTC
	ts := time.Date(2026, 2, 27, 9, 0, 0, 0, loc)
	rec := model.ClockRecord{ExternalID: "ev-1#in", Employee: "alice", Timestamp: ts.Unix(), Source: model.SourceOutlook}

	outcome, err := storage.UpsertExternal(base, loc, rec, true)
	require.NoError(t, err)
	assert.Equal(t, storage.Created, outcome)
	df, err := storage.LoadDay(base, ts)
	require.NoError(t, err)
	assert.Empty(t, df.Records, "dry run must not write")

	outcome, err = storage.UpsertExternal(base, loc, rec, false)
	require.NoError(t, err)
	assert.Equal(t, storage.Created, outcome)

	outcome, err = storage.UpsertExternal(base, loc, rec, false)
	require.NoError(t, err)
	assert.Equal(t, storage.Unchanged, outcome)

	moved := rec
	moved.Timestamp = ts.Add(30 * time.Minute).Unix()
	outcome, err = storage.UpsertExternal(base, loc, moved, false)
	require.NoError(t, err)
	assert.Equal(t, storage.Updated, outcome)

	df, err = storage.LoadDay(base, ts)
	require.NoError(t, err)
	require.Len(t, df.Records, 1)
	assert.Equal(t, moved.Timestamp, df.Records[0].Timestamp)
	assert.NotEmpty(t, df.Records[0].ID)

	_, err = storage.UpsertExternal(base, loc, model.ClockRecord{Employee: "alice"}, false)
	assert.Error(t, err)
	assert.Equal(t, "updated", storage.Updated.String())
}
