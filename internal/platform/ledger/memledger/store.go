package memledger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"timesheet/internal/domain/attendance"
)

// Store keeps ledgers in process memory. It backs tests and LEDGER_BACKEND=memory.
type Store struct {
	mu      sync.Mutex
	ledgers map[string][][]string
}

func New() *Store {
	return &Store{ledgers: map[string][][]string{}}
}

func (s *Store) EnsureLedger(ctx context.Context, ledgerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.ledgers[ledgerID]
	if !ok {
		s.ledgers[ledgerID] = [][]string{cloneRow(attendance.Header)}
		return nil
	}
	if len(rows) == 0 {
		s.ledgers[ledgerID] = [][]string{cloneRow(attendance.Header)}
		return nil
	}
	if !attendance.IsHeader(rows[0]) {
		rows[0] = cloneRow(attendance.Header)
	}
	return nil
}

func (s *Store) ReadAllRows(ctx context.Context, ledgerID string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.ledgers[ledgerID]
	if !ok {
		return nil, attendance.ErrLedgerNotFound
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = cloneRow(row)
	}
	return out, nil
}

func (s *Store) AppendRow(ctx context.Context, ledgerID string, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.ledgers[ledgerID]
	if !ok {
		return attendance.ErrLedgerNotFound
	}
	s.ledgers[ledgerID] = append(rows, attendance.PadRow(row))
	return nil
}

func (s *Store) UpdateRow(ctx context.Context, ledgerID string, position int, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.ledgers[ledgerID]
	if !ok {
		return attendance.ErrLedgerNotFound
	}
	if position <= attendance.HeaderPosition || position > len(rows) {
		return fmt.Errorf("%w: position %d", attendance.ErrRowNotFound, position)
	}
	rows[position-1] = attendance.PadRow(row)
	return nil
}

func (s *Store) ListLedgers(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.ledgers))
	for id := range s.ledgers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close satisfies io.Closer.
func (s *Store) Close() error {
	return nil
}

func cloneRow(row []string) []string {
	out := make([]string, len(row))
	copy(out, row)
	return out
}
