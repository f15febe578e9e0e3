package attendance

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Row serializes the record into the fixed 7-column ledger layout.
func (r DayRecord) Row() []string {
	hours := ""
	if r.Hours.Valid {
		hours = FormatHours(r.Hours.Decimal)
	}
	return []string{r.Date, r.Weekday, r.Project, r.CheckIn, r.CheckOut, hours, r.Notes}
}

// FormatHours renders hours the way the ledger has always stored them: whole
// days keep one decimal ("9.0"), fractional days their rounded digits ("9.5",
// "0.33").
func FormatHours(hours decimal.Decimal) string {
	if hours.Equal(hours.Truncate(0)) {
		return hours.StringFixed(1)
	}
	return hours.String()
}

// RecordFromRow parses a ledger row read at position. Short rows are padded; a
// non-numeric hours cell is read as empty.
func RecordFromRow(position int, row []string) DayRecord {
	cells := PadRow(row)
	rec := DayRecord{
		Position: position,
		Date:     cells[ColDate],
		Weekday:  cells[ColWeekday],
		Project:  cells[ColProject],
		CheckIn:  cells[ColCheckIn],
		CheckOut: cells[ColCheckOut],
		Notes:    cells[ColNotes],
	}
	if raw := strings.TrimSpace(cells[ColHours]); raw != "" {
		if hours, err := decimal.NewFromString(raw); err == nil {
			rec.Hours = decimal.NewNullDecimal(hours)
		}
	}
	return rec
}

// PadRow returns a copy of row with exactly Columns cells.
func PadRow(row []string) []string {
	out := make([]string, Columns)
	copy(out, row)
	return out
}

// IsHeader reports whether row matches the ledger header exactly.
func IsHeader(row []string) bool {
	if len(row) < len(Header) {
		return false
	}
	for i, name := range Header {
		if row[i] != name {
			return false
		}
	}
	return true
}

// LedgerID maps an employee identifier to its ledger key.
func LedgerID(employeeID string) string {
	return strings.ToUpper(strings.TrimSpace(employeeID))
}

// RecordsFromRows converts a full snapshot, header included, into records.
func RecordsFromRows(rows [][]string) []DayRecord {
	if len(rows) <= HeaderPosition {
		return []DayRecord{}
	}
	out := make([]DayRecord, 0, len(rows)-HeaderPosition)
	for i := HeaderPosition; i < len(rows); i++ {
		out = append(out, RecordFromRow(i+1, rows[i]))
	}
	return out
}
