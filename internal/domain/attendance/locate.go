package attendance

// Locate returns the 1-based position of the first row whose date column equals
// date. Duplicate dates are not reported; the first match wins.
func Locate(rows [][]string, date string) (int, bool) {
	for i, row := range rows {
		if len(row) > ColDate && row[ColDate] == date {
			return i + 1, true
		}
	}
	return 0, false
}
