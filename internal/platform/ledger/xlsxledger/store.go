package xlsxledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/xuri/excelize/v2"

	"timesheet/internal/domain/attendance"
)

// Store keeps every ledger as a worksheet of one workbook file, one sheet per
// ledger id, header frozen on row 1. Each write is saved to disk immediately.
type Store struct {
	mu   sync.Mutex
	path string
	file *excelize.File
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create workbook directory: %w", err)
	}

	var file *excelize.File
	if _, err := os.Stat(path); err == nil {
		file, err = excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		file = excelize.NewFile()
		if err := file.SaveAs(path); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("create workbook: %w", err)
		}
	} else {
		return nil, fmt.Errorf("stat workbook: %w", err)
	}

	return &Store{path: path, file: file}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

func (s *Store) EnsureLedger(ctx context.Context, ledgerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.file.GetSheetIndex(ledgerID)
	if err != nil {
		return err
	}
	if index == -1 {
		if _, err := s.file.NewSheet(ledgerID); err != nil {
			return fmt.Errorf("add sheet: %w", err)
		}
		if err := s.writeRow(ledgerID, attendance.HeaderPosition, attendance.Header); err != nil {
			return err
		}
		if err := s.file.SetPanes(ledgerID, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("freeze header: %w", err)
		}
		return s.file.Save()
	}

	rows, err := s.file.GetRows(ledgerID)
	if err != nil {
		return err
	}
	if len(rows) > 0 && attendance.IsHeader(rows[0]) {
		return nil
	}
	if err := s.writeRow(ledgerID, attendance.HeaderPosition, attendance.Header); err != nil {
		return err
	}
	return s.file.Save()
}

func (s *Store) ReadAllRows(ctx context.Context, ledgerID string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readRows(ledgerID)
}

func (s *Store) AppendRow(ctx context.Context, ledgerID string, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readRows(ledgerID)
	if err != nil {
		return err
	}
	if err := s.writeRow(ledgerID, len(rows)+1, row); err != nil {
		return err
	}
	return s.file.Save()
}

func (s *Store) UpdateRow(ctx context.Context, ledgerID string, position int, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readRows(ledgerID)
	if err != nil {
		return err
	}
	if position <= attendance.HeaderPosition || position > len(rows) {
		return fmt.Errorf("%w: position %d", attendance.ErrRowNotFound, position)
	}
	if err := s.writeRow(ledgerID, position, row); err != nil {
		return err
	}
	return s.file.Save()
}

// ListLedgers returns the sheets carrying a ledger header.
func (s *Store) ListLedgers(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for _, sheet := range s.file.GetSheetList() {
		header, err := s.file.GetRows(sheet)
		if err != nil {
			return nil, err
		}
		if len(header) > 0 && attendance.IsHeader(header[0]) {
			ids = append(ids, sheet)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) readRows(ledgerID string) ([][]string, error) {
	index, err := s.file.GetSheetIndex(ledgerID)
	if err != nil {
		return nil, err
	}
	if index == -1 {
		return nil, attendance.ErrLedgerNotFound
	}
	rows, err := s.file.GetRows(ledgerID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// writeRow writes all 7 cells of a row. Hours are stored as numbers so the
// workbook stays usable for sums.
func (s *Store) writeRow(ledgerID string, position int, row []string) error {
	cell, err := excelize.CoordinatesToCellName(1, position)
	if err != nil {
		return err
	}
	cells := attendance.PadRow(row)
	values := make([]interface{}, len(cells))
	for i, value := range cells {
		values[i] = value
		if i == attendance.ColHours && position != attendance.HeaderPosition && value != "" {
			if hours, err := strconv.ParseFloat(value, 64); err == nil {
				values[i] = hours
			}
		}
	}
	if err := s.file.SetSheetRow(ledgerID, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", position, err)
	}
	return nil
}
