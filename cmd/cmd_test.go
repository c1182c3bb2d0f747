package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Tiliavir/tclock/internal/config"
)

// workspace points the CLI at a fresh data directory and returns it.
func workspace(t *testing.T) string {
	t.Helper()
	t.Setenv(config.EnvEmployee, "")
	t.Setenv(config.EnvTimezone, "")
	t.Setenv(config.EnvDataDir, "")

	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	content := "employee: alice\ntimezone: UTC\ndata_dir: " + dir + "\n"
	require.NoError(t, os.WriteFile(cfgFile, []byte(content), 0o600))

	logger = zap.NewNop()
	t.Cleanup(func() { nowFunc = time.Now })
	return cfgFile
}

func setNow(t time.Time) { nowFunc = func() time.Time { return t } }

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// run executes the CLI with args against cfgFile and returns stdout.
func run(t *testing.T, cfgFile string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--config", cfgFile}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return -1
}

func at(d, h, m int) time.Time {
	return time.Date(2026, 3, d, h, m, 0, 0, time.UTC)
}

func TestClockInOutFlow(t *testing.T) {
	cfg := workspace(t)

	setNow(at(2, 9, 0))
	out, err := run(t, cfg, "in")
	require.NoError(t, err)
	assert.Contains(t, out, "alice clocked in at 9:00am")

	setNow(at(2, 10, 0))
	_, err = run(t, cfg, "in")
	assert.Equal(t, 1, exitCode(err))

	out, err = run(t, cfg, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "alice is clocked in.")
	assert.Contains(t, out, "Today: 1.00h worked.")

	setNow(at(2, 17, 30))
	out, err = run(t, cfg, "out")
	require.NoError(t, err)
	assert.Contains(t, out, "Elapsed: 8h 30m 0s")
	assert.Contains(t, out, "Today: 8.50h")

	_, err = run(t, cfg, "out")
	assert.Equal(t, 1, exitCode(err))

	out, err = run(t, cfg, "log")
	require.NoError(t, err)
	assert.Contains(t, out, "2026-03-02")
	assert.Contains(t, out, "09:00:00  in")
	assert.Contains(t, out, "17:30:00  out")
}

func TestEmployeeFlagOverridesConfig(t *testing.T) {
	cfg := workspace(t)
	setNow(at(2, 9, 0))

	out, err := run(t, cfg, "--employee", "bob", "in")
	require.NoError(t, err)
	assert.Contains(t, out, "bob clocked in")

	out, err = run(t, cfg, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "alice is clocked out.")
}

func TestShiftsSplitAtMidnight(t *testing.T) {
	cfg := workspace(t)

	setNow(at(3, 22, 0))
	_, err := run(t, cfg, "in")
	require.NoError(t, err)
	setNow(at(4, 6, 0))
	_, err = run(t, cfg, "out")
	require.NoError(t, err)

	out, err := run(t, cfg, "shifts", "--from", "2026-03-03", "--to", "2026-03-04")
	require.NoError(t, err)
	assert.Contains(t, out, "Tue 2026-03-03")
	assert.Contains(t, out, "10:00pm - 11:59pm")
	assert.Contains(t, out, "Wed 2026-03-04")
	assert.Contains(t, out, "12:00am - 6:00am")
	assert.Contains(t, out, "7.98h")
}

func TestShiftsOpenFlag(t *testing.T) {
	cfg := workspace(t)

	setNow(at(2, 9, 0))
	_, err := run(t, cfg, "in")
	require.NoError(t, err)
	setNow(at(2, 11, 0))

	out, err := run(t, cfg, "shifts", "--today", "--open=false")
	require.NoError(t, err)
	assert.Contains(t, out, "No shifts found.")

	out, err = run(t, cfg, "shifts", "--today")
	require.NoError(t, err)
	assert.Contains(t, out, "11:00am")
	assert.Contains(t, out, "2.00h *")
}

func TestAmendAndReport(t *testing.T) {
	cfg := workspace(t)
	setNow(at(6, 12, 0))

	out, err := run(t, cfg, "amend", "--date", "2026-03-02", "9:00am-12:00pm", "1:00pm-5:30pm")
	require.NoError(t, err)
	assert.Contains(t, out, "with 2 segment(s)")

	_, err = run(t, cfg, "--employee", "bob", "amend", "--date", "2026-03-03", "10:00pm-2:00am")
	require.NoError(t, err)

	out, err = run(t, cfg, "report", "--format", "csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "date,employee,start,end,virtual,hours", lines[0])
	assert.Equal(t, "2026-03-02,alice,9:00am,12:00pm,false,3.00", lines[1])
	assert.Equal(t, "2026-03-03,bob,10:00pm,11:59pm,false,1.98", lines[3])
	assert.Equal(t, "2026-03-04,bob,12:00am,2:00am,false,2.00", lines[4])

	_, err = run(t, cfg, "amend", "--date", "2026-03-02", "9am-5pm")
	assert.Equal(t, 1, exitCode(err))
}

func TestAmendKeepsOvernightClockOut(t *testing.T) {
	cfg := workspace(t)
	setNow(at(6, 12, 0))

	_, err := run(t, cfg, "amend", "--date", "2026-03-03", "10:00pm-2:00am")
	require.NoError(t, err)

	_, err = run(t, cfg, "amend", "--date", "2026-03-04", "9:00am-5:00pm")
	assert.Equal(t, 1, exitCode(err))

	out, err := run(t, cfg, "report", "--format", "csv", "--from", "2026-03-03", "--to", "2026-03-04")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "2026-03-04,alice,12:00am,2:00am,false,2.00", lines[2])

	_, err = run(t, cfg, "amend", "--date", "2026-03-04", "--force", "9:00am-5:00pm")
	require.NoError(t, err)
}

func TestReportXLSX(t *testing.T) {
	cfg := workspace(t)
	setNow(at(6, 12, 0))

	_, err := run(t, cfg, "amend", "--date", "2026-03-02", "9:00am-5:00pm")
	require.NoError(t, err)

	_, err = run(t, cfg, "report", "--format", "xlsx")
	assert.Equal(t, 1, exitCode(err))

	path := filepath.Join(t.TempDir(), "week.xlsx")
	out, err := run(t, cfg, "report", "--format", "xlsx", "--output", path)
	require.NoError(t, err)
	assert.Contains(t, out, "to "+path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Totals")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "alice", rows[1][0])
}

func TestImportCommand(t *testing.T) {
	cfg := workspace(t)
	setNow(at(6, 12, 0))

	file := filepath.Join(t.TempDir(), "logs.json")
	doc := `{"clock_logs":[
		{"user":"sam","out":false,"timestamp":1772442000},
		{"user":"sam","out":true,"timestamp":1772470800}
	]}`
	require.NoError(t, os.WriteFile(file, []byte(doc), 0o600))

	out, err := run(t, cfg, "import", "--dry-run", file)
	require.NoError(t, err)
	assert.Contains(t, out, "[dry-run]")
	assert.Contains(t, out, "2 created")

	out, err = run(t, cfg, "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "2 created")

	out, err = run(t, cfg, "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "2 unchanged")

	out, err = run(t, cfg, "--employee", "sam", "shifts", "--from", "2026-03-02", "--to", "2026-03-02")
	require.NoError(t, err)
	assert.Contains(t, out, "8.00h")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"user":"","timestamp":0}]`), 0o600))
	_, err = run(t, cfg, "import", bad)
	assert.Equal(t, 1, exitCode(err))
}

func TestMissingEmployee(t *testing.T) {
	cfg := workspace(t)
	require.NoError(t, os.WriteFile(cfg, []byte("timezone: UTC\ndata_dir: "+filepath.Dir(cfg)+"\n"), 0o600))

	_, err := run(t, cfg, "in")
	assert.Equal(t, 1, exitCode(err))
	assert.Contains(t, err.Error(), "no employee set")
}

func TestStorageErrorExitCode(t *testing.T) {
	cfg := workspace(t)
	base := filepath.Dir(cfg)
	setNow(at(2, 9, 0))

	// A corrupt day file is a storage failure.
	require.NoError(t, os.MkdirAll(filepath.Join(base, "2026", "03"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(base, "2026", "03", "02.json"), []byte("{"), 0o600))

	_, err := run(t, cfg, "in")
	assert.Equal(t, 2, exitCode(err))
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0s"},
		{30, "30s"},
		{59, "59s"},
		{60, "1m 0s"},
		{90, "1m 30s"},
		{3600, "1h 0m 0s"},
		{3661, "1h 1m 1s"},
		{7322, "2h 2m 2s"},
	}
	for _, tt := range tests {
		got := formatElapsed(tt.seconds)
		if got != tt.want {
			t.Errorf("formatElapsed(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestParseSegment(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		in        string
		wantStart time.Time
		wantEnd   time.Time
		wantErr   bool
	}{
		{"9:00am-5:00pm", day.Add(9 * time.Hour), day.Add(17 * time.Hour), false},
		{"12:00am-12:30am", day, day.Add(30 * time.Minute), false},
		{"10:15pm-2:00am", day.Add(22*time.Hour + 15*time.Minute), day.Add(26 * time.Hour), false},
		{"9:00am", time.Time{}, time.Time{}, true},
		{"9:00-17:00", time.Time{}, time.Time{}, true},
		{"13:00pm-2:00pm", time.Time{}, time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			iv, err := parseSegment(tt.in, day)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, iv.Start.Equal(tt.wantStart), "start = %v", iv.Start)
			assert.True(t, iv.End.Equal(tt.wantEnd), "end = %v", iv.End)
		})
	}
}

func TestWindowResolve(t *testing.T) {
	now := time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC) // Wednesday

	tests := []struct {
		name     string
		w        windowFlags
		week     bool
		wantFrom string
		wantTo   string
		wantErr  bool
	}{
		{"default today", windowFlags{}, false, "2026-03-04", "2026-03-04", false},
		{"default week", windowFlags{}, true, "2026-03-02", "2026-03-08", false},
		{"week flag", windowFlags{week: true}, false, "2026-03-02", "2026-03-08", false},
		{"today flag wins over week default", windowFlags{today: true}, true, "2026-03-04", "2026-03-04", false},
		{"from only", windowFlags{from: "2026-02-20"}, false, "2026-02-20", "2026-03-04", false},
		{"from and to", windowFlags{from: "2026-02-01", to: "2026-02-28"}, false, "2026-02-01", "2026-02-28", false},
		{"to without from", windowFlags{to: "2026-02-28"}, false, "", "", true},
		{"bad date", windowFlags{from: "02/01/2026"}, false, "", "", true},
		{"reversed", windowFlags{from: "2026-03-01", to: "2026-02-01"}, false, "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := tt.w.resolve(now, time.UTC, tt.week)
			if tt.wantErr {
				assert.Equal(t, 1, exitCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFrom, from.Format("2006-01-02"))
			assert.Equal(t, tt.wantTo, to.Format("2006-01-02"))
			assert.Equal(t, 0, from.Hour())
			assert.Equal(t, 23, to.Hour())
		})
	}
}
