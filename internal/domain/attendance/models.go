package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

type State string

const (
	StateNoRowToday State = "no_row_today"
	StateRowOpen    State = "row_open"
	StateRowClosed  State = "row_closed"
)

type Trigger string

const (
	TriggerAccess   Trigger = "access"
	TriggerCheckOut Trigger = "check_out"
)

type Action string

const (
	ActionCreateCheckIn      Action = "check_in"
	ActionCompleteCheckOut   Action = "check_out"
	ActionAwaitCheckOut      Action = "check_out_available"
	ActionAlreadyCompleted   Action = "already_completed"
	ActionRejectNotCheckedIn Action = "not_checked_in"
)

// Mutates reports whether the action writes to the ledger.
func (a Action) Mutates() bool {
	return a == ActionCreateCheckIn || a == ActionCompleteCheckOut
}

type DayRecord struct {
	Position int                 `json:"position"`
	Date     string              `json:"date"`
	Weekday  string              `json:"weekday"`
	Project  string              `json:"project"`
	CheckIn  string              `json:"checkIn"`
	CheckOut string              `json:"checkOut"`
	Hours    decimal.NullDecimal `json:"hours"`
	Notes    string              `json:"notes"`
}

type Input struct {
	EmployeeID   string `json:"employeeId"`
	EmployeeName string `json:"employeeName"`
	Project      string `json:"project"`
}

type Decision struct {
	State  State
	Action Action
	Record DayRecord
}

type Result struct {
	Action       Action    `json:"action"`
	State        State     `json:"state"`
	LedgerID     string    `json:"ledgerId"`
	EmployeeName string    `json:"employeeName"`
	Record       DayRecord `json:"record"`
	Status       string    `json:"status"`
}

type Ledger struct {
	ID      string      `json:"id"`
	Records []DayRecord `json:"records"`
}

// Clock supplies the current time in the configured zone.
type Clock interface {
	Now() time.Time
}

type ActionRecorder interface {
	RecordAction(action string)
}
