package pgledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"timesheet/internal/domain/attendance"
)

const rowColumns = "date, weekday, project, check_in, check_out, hours, notes"

// Store keeps ledgers in PostgreSQL. The header is stored as position 1 and a
// partial unique index on (ledger_id, date) backs AppendRowIfAbsent.
type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) EnsureLedger(ctx context.Context, ledgerID string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
    INSERT INTO ledgers (id) VALUES ($1)
    ON CONFLICT (id) DO NOTHING
  `, ledgerID); err != nil {
		return err
	}

	header := attendance.Header
	if _, err := tx.Exec(ctx, `
    INSERT INTO ledger_rows (ledger_id, position, `+rowColumns+`)
    VALUES ($1, 1, $2, $3, $4, $5, $6, $7, $8)
    ON CONFLICT (ledger_id, position) DO UPDATE
    SET date = EXCLUDED.date, weekday = EXCLUDED.weekday, project = EXCLUDED.project,
        check_in = EXCLUDED.check_in, check_out = EXCLUDED.check_out,
        hours = EXCLUDED.hours, notes = EXCLUDED.notes, updated_at = now()
    WHERE (ledger_rows.date, ledger_rows.weekday, ledger_rows.project, ledger_rows.check_in,
           ledger_rows.check_out, ledger_rows.hours, ledger_rows.notes)
      IS DISTINCT FROM (EXCLUDED.date, EXCLUDED.weekday, EXCLUDED.project, EXCLUDED.check_in,
           EXCLUDED.check_out, EXCLUDED.hours, EXCLUDED.notes)
  `, ledgerID, header[0], header[1], header[2], header[3], header[4], header[5], header[6]); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *Store) ReadAllRows(ctx context.Context, ledgerID string) ([][]string, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM ledgers WHERE id = $1", ledgerID).Scan(&count); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, attendance.ErrLedgerNotFound
	}

	rows, err := s.DB.Query(ctx, `
    SELECT `+rowColumns+`
    FROM ledger_rows
    WHERE ledger_id = $1
    ORDER BY position
  `, ledgerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		row := make([]string, attendance.Columns)
		if err := rows.Scan(&row[0], &row[1], &row[2], &row[3], &row[4], &row[5], &row[6]); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) AppendRow(ctx context.Context, ledgerID string, row []string) error {
	_, _, err := s.insertRow(ctx, ledgerID, row, false)
	return err
}

func (s *Store) AppendRowIfAbsent(ctx context.Context, ledgerID, date string, row []string) (int, bool, error) {
	cells := attendance.PadRow(row)
	cells[attendance.ColDate] = date
	return s.insertRow(ctx, ledgerID, cells, true)
}

func (s *Store) UpdateRow(ctx context.Context, ledgerID string, position int, row []string) error {
	if position <= attendance.HeaderPosition {
		return fmt.Errorf("%w: position %d", attendance.ErrRowNotFound, position)
	}
	cells := attendance.PadRow(row)
	tag, err := s.DB.Exec(ctx, `
    UPDATE ledger_rows
    SET date = $3, weekday = $4, project = $5, check_in = $6, check_out = $7,
        hours = $8, notes = $9, updated_at = now()
    WHERE ledger_id = $1 AND position = $2
  `, ledgerID, position, cells[0], cells[1], cells[2], cells[3], cells[4], cells[5], cells[6])
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: position %d", attendance.ErrRowNotFound, position)
	}
	return nil
}

func (s *Store) ListLedgers(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT id FROM ledgers ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// insertRow appends at MAX(position)+1 while holding the ledger row lock, so
// positions stay contiguous across processes.
func (s *Store) insertRow(ctx context.Context, ledgerID string, row []string, ifAbsent bool) (int, bool, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return 0, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var locked string
	err = tx.QueryRow(ctx, "SELECT id FROM ledgers WHERE id = $1 FOR UPDATE", ledgerID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, attendance.ErrLedgerNotFound
	}
	if err != nil {
		return 0, false, err
	}

	conflict := ""
	if ifAbsent {
		conflict = "ON CONFLICT (ledger_id, date) WHERE position > 1 DO NOTHING"
	}
	cells := attendance.PadRow(row)
	var position int
	err = tx.QueryRow(ctx, `
    INSERT INTO ledger_rows (ledger_id, position, `+rowColumns+`)
    SELECT $1, COALESCE(MAX(position), 0) + 1, $2::text, $3::text, $4::text, $5::text, $6::text, $7::text, $8::text
    FROM ledger_rows
    WHERE ledger_id = $1
    `+conflict+`
    RETURNING position
  `, ledgerID, cells[0], cells[1], cells[2], cells[3], cells[4], cells[5], cells[6]).Scan(&position)
	if ifAbsent && errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, false, err
	}
	return position, true, nil
}
