package attendance

const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
	WeekdayLayout   = "Mon"

	DefaultProject = "--"

	// Columns is the fixed width of every ledger row.
	Columns = 7

	// HeaderPosition is the row position of the frozen header.
	HeaderPosition = 1

	MaxEmployeeIDLength   = 16
	MaxEmployeeNameLength = 80
	MaxProjectLength      = 80
)

const (
	ColDate = iota
	ColWeekday
	ColProject
	ColCheckIn
	ColCheckOut
	ColHours
	ColNotes
)

// Header is the first row of every ledger.
var Header = []string{"Date", "Weekday", "Project", "CheckIn", "CheckOut", "Hours", "Notes"}

const (
	StatusCheckInRecorded  = "check-in recorded at %s"
	StatusCheckOutRecorded = "check-out recorded at %s"
	StatusAwaitCheckOut    = "checked in at %s; check-out available"
	StatusAlreadyCompleted = "already completed today"
	StatusNotCheckedIn     = "no check-in recorded today"
)
