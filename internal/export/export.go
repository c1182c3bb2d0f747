// Package export renders reports as Markdown, CSV, JSON or XLSX.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Tiliavir/tclock/internal/report"
	"github.com/Tiliavir/tclock/internal/timecalc"
)

// Formats accepted by Write.
const (
	FormatMarkdown = "md"
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatXLSX     = "xlsx"
)

// Write renders r in the named format.
func Write(w io.Writer, format string, r *report.Report) error {
	switch format {
	case FormatMarkdown, "":
		return WriteMarkdown(w, r)
	case FormatCSV:
		return WriteCSV(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatXLSX:
		return WriteXLSX(w, r)
	}
	return fmt.Errorf("unknown format %q (want md, csv, json or xlsx)", format)
}

const rule = "--------------------------------"

// WriteMarkdown prints one block per employee listing each day's segments.
func WriteMarkdown(w io.Writer, r *report.Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Shifts %s to %s", r.From.Format("2006-01-02"), r.To.Format("2006-01-02"))
	if mon, sun := timecalc.WeekRange(r.From); mon.Equal(r.From) && timecalc.SameDay(sun, r.To) {
		fmt.Fprintf(&b, " (%s)", timecalc.ISOWeekLabel(r.From))
	}
	b.WriteString("\n")
	for _, er := range r.Employees {
		fmt.Fprintf(&b, "\n## %s\n", er.Employee)
		fmt.Fprintln(&b, rule)
		for _, sh := range er.Shifts {
			segs := make([]string, len(sh.Segments))
			for i, seg := range sh.Segments {
				segs[i] = seg.StartLabel() + "-" + seg.EndLabel()
				if seg.Virtual {
					segs[i] += "*"
				}
			}
			fmt.Fprintf(&b, "%s  %-40s %s\n", sh.Date.Format("Mon 2006-01-02"),
				strings.Join(segs, ", "), timecalc.FormatHours(sh.Hours))
		}
		fmt.Fprintln(&b, rule)
		fmt.Fprintf(&b, "%-56s %s\n", "Total", timecalc.FormatHours(er.TotalHours))
	}
	fmt.Fprintf(&b, "\n%-56s %s\n", "Grand total", timecalc.FormatHours(r.TotalHours))
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteCSV writes one row per segment.
func WriteCSV(w io.Writer, r *report.Report) error {
	var b strings.Builder
	b.WriteString("date,employee,start,end,virtual,hours\n")
	for _, er := range r.Employees {
		for _, sh := range er.Shifts {
			for _, seg := range sh.Segments {
				fmt.Fprintf(&b, "%s,%s,%s,%s,%t,%.2f\n",
					sh.Date.Format("2006-01-02"),
					csvEscape(er.Employee),
					seg.StartLabel(),
					seg.EndLabel(),
					seg.Virtual,
					seg.Hours(),
				)
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// csvEscape wraps a field in quotes if it contains a comma, quote, or newline.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	// Escape internal double quotes by doubling them.
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// WriteJSON writes the whole report as indented JSON.
func WriteJSON(w io.Writer, r *report.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("error encoding JSON: %w", err)
	}
	return nil
}

const (
	shiftsSheet = "Shifts"
	totalsSheet = "Totals"
)

// WriteXLSX writes a workbook with a segment-per-row "Shifts" sheet and a
// per-employee "Totals" sheet.
func WriteXLSX(w io.Writer, r *report.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", shiftsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(totalsSheet); err != nil {
		return err
	}

	row := 1
	if err := setRow(f, shiftsSheet, row, []any{"Date", "Employee", "Start", "End", "Virtual", "Hours"}); err != nil {
		return err
	}
	for _, er := range r.Employees {
		for _, sh := range er.Shifts {
			for _, seg := range sh.Segments {
				row++
				if err := setRow(f, shiftsSheet, row, []any{
					sh.Date.Format("2006-01-02"), er.Employee,
					seg.StartLabel(), seg.EndLabel(), seg.Virtual, round2(seg.Hours()),
				}); err != nil {
					return err
				}
			}
		}
	}

	row = 1
	if err := setRow(f, totalsSheet, row, []any{"Employee", "Hours"}); err != nil {
		return err
	}
	for _, er := range r.Employees {
		row++
		if err := setRow(f, totalsSheet, row, []any{er.Employee, round2(er.TotalHours)}); err != nil {
			return err
		}
	}
	row++
	if err := setRow(f, totalsSheet, row, []any{"Total", round2(r.TotalHours)}); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func round2(h float64) float64 {
	return float64(int64(h*100+0.5)) / 100
}
