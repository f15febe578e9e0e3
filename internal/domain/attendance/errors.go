package attendance

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrLedgerAccess   = errors.New("ledger access failed")
	ErrLedgerNotFound = errors.New("ledger not found")
	ErrRowNotFound    = errors.New("ledger row not found")
	ErrNotCheckedIn   = errors.New("no check-in recorded today")
)

type FieldIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError reports rejected input. It matches ErrValidation.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Field+" "+issue.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func ledgerAccess(op, ledgerID string, err error) error {
	if ledgerID == "" {
		return fmt.Errorf("%w: %s: %w", ErrLedgerAccess, op, err)
	}
	return fmt.Errorf("%w: %s %s: %w", ErrLedgerAccess, op, ledgerID, err)
}
