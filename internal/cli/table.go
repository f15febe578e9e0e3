package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"

	"timesheet/internal/domain/attendance"
)

func newestFirst(records []attendance.DayRecord, limit int) []attendance.DayRecord {
	out := make([]attendance.DayRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func printLedger(w io.Writer, records []attendance.DayRecord) {
	rows := make([][]string, 0, len(records))
	total := decimal.Zero
	for _, rec := range records {
		rows = append(rows, rec.Row())
		if rec.Hours.Valid {
			total = total.Add(rec.Hours.Decimal)
		}
	}
	footers := make([]string, attendance.Columns)
	footers[attendance.ColCheckOut] = "Total:"
	footers[attendance.ColHours] = total.StringFixed(2)
	printTable(w, attendance.Header, rows, footers)
}

func printTable(w io.Writer, headers []string, rows [][]string, footers []string) {
	lines := make([][]string, 0, len(rows)+2)
	lines = append(lines, headers)
	lines = append(lines, rows...)
	lines = append(lines, footers)

	colWidths := make([]int, len(headers))
	for _, line := range lines {
		for i, cell := range line {
			if len(cell) > colWidths[i] {
				colWidths[i] = len(cell)
			}
		}
	}

	for _, line := range lines {
		for i, cell := range line {
			fmt.Fprintf(w, "%-*s  ", colWidths[i], cell)
		}
		fmt.Fprintln(w)
	}
}
