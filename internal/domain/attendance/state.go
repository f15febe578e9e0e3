package attendance

import "time"

// Classify derives the day state from the row contents alone.
func Classify(existing *DayRecord) State {
	switch {
	case existing == nil:
		return StateNoRowToday
	case existing.CheckOut == "":
		return StateRowOpen
	default:
		return StateRowClosed
	}
}

// Decide picks the next action for the day. Only ActionCreateCheckIn and
// ActionCompleteCheckOut carry a record that must be written.
func Decide(existing *DayRecord, trigger Trigger, now time.Time, project string) Decision {
	state := Classify(existing)
	switch state {
	case StateNoRowToday:
		if trigger == TriggerCheckOut {
			return Decision{State: state, Action: ActionRejectNotCheckedIn}
		}
		return Decision{State: state, Action: ActionCreateCheckIn, Record: newCheckIn(now, project)}
	case StateRowOpen:
		if trigger != TriggerCheckOut {
			return Decision{State: state, Action: ActionAwaitCheckOut, Record: *existing}
		}
		return Decision{State: state, Action: ActionCompleteCheckOut, Record: closeRecord(*existing, now)}
	default:
		return Decision{State: state, Action: ActionAlreadyCompleted, Record: *existing}
	}
}

func newCheckIn(now time.Time, project string) DayRecord {
	if project == "" {
		project = DefaultProject
	}
	return DayRecord{
		Date:    now.Format(DateLayout),
		Weekday: now.Format(WeekdayLayout),
		Project: project,
		CheckIn: now.Format(TimestampLayout),
	}
}

func closeRecord(rec DayRecord, now time.Time) DayRecord {
	rec.CheckOut = now.Format(TimestampLayout)
	if hours, ok := ComputeHours(rec.CheckIn, rec.CheckOut); ok {
		rec.Hours.Decimal = hours
		rec.Hours.Valid = true
	} else {
		rec.Hours.Valid = false
	}
	return rec
}
