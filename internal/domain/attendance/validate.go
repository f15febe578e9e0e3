package attendance

import (
	"strings"
	"unicode/utf8"
)

const forbiddenIDChars = `:\/?*[]`

func (in Input) normalized(defaultProject string) Input {
	out := Input{
		EmployeeID:   LedgerID(in.EmployeeID),
		EmployeeName: strings.TrimSpace(in.EmployeeName),
		Project:      strings.TrimSpace(in.Project),
	}
	if out.Project == "" {
		out.Project = defaultProject
	}
	return out
}

// Validate checks the required form fields.
func (in Input) Validate() error {
	var issues []FieldIssue
	issues = append(issues, validateEmployeeID(in.EmployeeID)...)

	name := strings.TrimSpace(in.EmployeeName)
	switch {
	case name == "":
		issues = append(issues, FieldIssue{Field: "employeeName", Reason: "is required"})
	case utf8.RuneCountInString(name) > MaxEmployeeNameLength:
		issues = append(issues, FieldIssue{Field: "employeeName", Reason: "is too long"})
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Project)) > MaxProjectLength {
		issues = append(issues, FieldIssue{Field: "project", Reason: "is too long"})
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// ValidateEmployeeID checks an identifier on its own, for read-only lookups.
func ValidateEmployeeID(employeeID string) error {
	if issues := validateEmployeeID(employeeID); len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

func validateEmployeeID(employeeID string) []FieldIssue {
	id := strings.TrimSpace(employeeID)
	switch {
	case id == "":
		return []FieldIssue{{Field: "employeeId", Reason: "is required"}}
	case utf8.RuneCountInString(id) > MaxEmployeeIDLength:
		return []FieldIssue{{Field: "employeeId", Reason: "is too long"}}
	case strings.ContainsAny(id, forbiddenIDChars):
		return []FieldIssue{{Field: "employeeId", Reason: "contains invalid characters"}}
	}
	return nil
}
