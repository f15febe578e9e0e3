package attendance

import "context"

// LedgerStore is the spreadsheet-like backend holding one ledger per employee.
// Rows are addressed by 1-based position; position 1 is the header.
type LedgerStore interface {
	EnsureLedger(ctx context.Context, ledgerID string) error
	ReadAllRows(ctx context.Context, ledgerID string) ([][]string, error)
	AppendRow(ctx context.Context, ledgerID string, row []string) error
	UpdateRow(ctx context.Context, ledgerID string, position int, row []string) error
	ListLedgers(ctx context.Context) ([]string, error)
}

// ConditionalAppender is implemented by backends that can refuse a second row
// for the same date. appended is false when a row for date already exists.
type ConditionalAppender interface {
	AppendRowIfAbsent(ctx context.Context, ledgerID, date string, row []string) (position int, appended bool, err error)
}
