package attendance

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var secondsPerHour = decimal.NewFromInt(3600)

// ComputeHours returns checkOut minus checkIn in hours, rounded to two places.
// ok is false when either timestamp does not parse. Negative durations are kept.
func ComputeHours(checkIn, checkOut string) (decimal.Decimal, bool) {
	in, err := time.Parse(TimestampLayout, strings.TrimSpace(checkIn))
	if err != nil {
		return decimal.Decimal{}, false
	}
	out, err := time.Parse(TimestampLayout, strings.TrimSpace(checkOut))
	if err != nil {
		return decimal.Decimal{}, false
	}
	seconds := decimal.NewFromInt(int64(out.Sub(in) / time.Second))
	return seconds.Div(secondsPerHour).Round(2), true
}
