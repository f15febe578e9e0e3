package shared

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

// DateRange bounds ledger days inclusively. Empty ends are open.
type DateRange struct {
	From string
	To   string
}

func (d DateRange) Contains(day string) bool {
	if d.From != "" && day < d.From {
		return false
	}
	if d.To != "" && day > d.To {
		return false
	}
	return true
}

// ParseDateRange reads the from/to query parameters, reporting malformed or
// inverted bounds on v.
func ParseDateRange(v *Validator, r *http.Request) DateRange {
	query := r.URL.Query()
	var out DateRange
	if raw := strings.TrimSpace(query.Get("from")); raw != "" {
		out.From, _ = v.Day("from", raw)
	}
	if raw := strings.TrimSpace(query.Get("to")); raw != "" {
		out.To, _ = v.Day("to", raw)
	}
	if out.From != "" && out.To != "" && out.To < out.From {
		v.Add("from", "must be on or before to")
		v.Add("to", "must be on or after from")
	}
	return out
}

// parseDay accepts YYYY-MM-DD or an RFC3339 timestamp and keeps only the day.
func parseDay(value string) (string, error) {
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.Format(dayLayout), nil
	}
	parsed, err := time.Parse(dayLayout, value)
	if err != nil {
		return "", err
	}
	return parsed.Format(dayLayout), nil
}

type Page struct {
	Limit  int
	Offset int
}

func ParsePage(r *http.Request, defaultLimit, maxLimit int) Page {
	limit := defaultLimit
	offset := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return Page{Limit: limit, Offset: offset}
}

// Paginate returns the window of items selected by p, never nil.
func Paginate[T any](items []T, p Page) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	end := p.Offset + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[p.Offset:end]
}
