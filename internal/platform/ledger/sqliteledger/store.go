package sqliteledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"timesheet/internal/domain/attendance"
)

const (
	// migration queries
	createLedgersTableSQL = `
  CREATE TABLE IF NOT EXISTS ledgers (
  id TEXT PRIMARY KEY,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP
  )`

	createRowsTableSQL = `
  CREATE TABLE IF NOT EXISTS ledger_rows (
  ledger_id TEXT NOT NULL,
  position INTEGER NOT NULL,
  date TEXT NOT NULL DEFAULT '',
  weekday TEXT NOT NULL DEFAULT '',
  project TEXT NOT NULL DEFAULT '',
  check_in TEXT NOT NULL DEFAULT '',
  check_out TEXT NOT NULL DEFAULT '',
  hours TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (ledger_id, position),
  FOREIGN KEY (ledger_id) REFERENCES ledgers(id)
  )`

	createDateIndexSQL = `
  CREATE UNIQUE INDEX IF NOT EXISTS ledger_rows_ledger_date_idx
  ON ledger_rows (ledger_id, date) WHERE position > 1`

	// ledger queries
	insertLedgerSQL  = `INSERT INTO ledgers (id) VALUES (?) ON CONFLICT (id) DO NOTHING`
	ledgerExistsSQL  = `SELECT EXISTS(SELECT 1 FROM ledgers WHERE id = ?)`
	listLedgersSQL   = `SELECT id FROM ledgers ORDER BY id`
	upsertHeaderSQL  = `INSERT OR REPLACE INTO ledger_rows (ledger_id, position, date, weekday, project, check_in, check_out, hours, notes) VALUES (?, 1, ?, ?, ?, ?, ?, ?, ?)`
	headerRowSQL     = `SELECT date, weekday, project, check_in, check_out, hours, notes FROM ledger_rows WHERE ledger_id = ? AND position = 1`
	selectRowsSQL    = `SELECT date, weekday, project, check_in, check_out, hours, notes FROM ledger_rows WHERE ledger_id = ? ORDER BY position`
	nextPositionSQL  = `SELECT COALESCE(MAX(position), 0) + 1 FROM ledger_rows WHERE ledger_id = ?`
	insertRowSQL     = `INSERT INTO ledger_rows (ledger_id, position, date, weekday, project, check_in, check_out, hours, notes) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	insertRowOnceSQL = insertRowSQL + ` ON CONFLICT (ledger_id, date) WHERE position > 1 DO NOTHING`
	updateRowSQL     = `UPDATE ledger_rows SET date = ?, weekday = ?, project = ?, check_in = ?, check_out = ?, hours = ?, notes = ? WHERE ledger_id = ? AND position = ?`
)

// Store keeps ledgers in a local SQLite file with the same layout as the
// PostgreSQL backend.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	// ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// transactions take the write lock at BEGIN; appends read before they write
	db, err := sql.Open("sqlite3", "file:"+path+"?_busy_timeout=5000&_foreign_keys=on&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// verify connection with database
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &Store{db: db}
	if err := store.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) runMigrations() error {
	for _, stmt := range []string{createLedgersTableSQL, createRowsTableSQL, createDateIndexSQL} {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

func (s *Store) EnsureLedger(ctx context.Context, ledgerID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, insertLedgerSQL, ledgerID); err != nil {
		return err
	}

	current := make([]string, attendance.Columns)
	err = tx.QueryRowContext(ctx, headerRowSQL, ledgerID).Scan(&current[0], &current[1], &current[2], &current[3], &current[4], &current[5], &current[6])
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if err == nil && attendance.IsHeader(current) {
		return tx.Commit()
	}

	h := attendance.Header
	if _, err := tx.ExecContext(ctx, upsertHeaderSQL, ledgerID, h[0], h[1], h[2], h[3], h[4], h[5], h[6]); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) ReadAllRows(ctx context.Context, ledgerID string) ([][]string, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, ledgerExistsSQL, ledgerID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, attendance.ErrLedgerNotFound
	}

	rows, err := s.db.QueryContext(ctx, selectRowsSQL, ledgerID)
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
	_, _, err := s.insertRow(ctx, ledgerID, attendance.PadRow(row), insertRowSQL)
	return err
}

func (s *Store) AppendRowIfAbsent(ctx context.Context, ledgerID, date string, row []string) (int, bool, error) {
	cells := attendance.PadRow(row)
	cells[attendance.ColDate] = date
	return s.insertRow(ctx, ledgerID, cells, insertRowOnceSQL)
}

func (s *Store) UpdateRow(ctx context.Context, ledgerID string, position int, row []string) error {
	if position <= attendance.HeaderPosition {
		return fmt.Errorf("%w: position %d", attendance.ErrRowNotFound, position)
	}
	c := attendance.PadRow(row)
	res, err := s.db.ExecContext(ctx, updateRowSQL, c[0], c[1], c[2], c[3], c[4], c[5], c[6], ledgerID, position)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: position %d", attendance.ErrRowNotFound, position)
	}
	return nil
}

func (s *Store) ListLedgers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, listLedgersSQL)
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

func (s *Store) insertRow(ctx context.Context, ledgerID string, c []string, query string) (int, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, ledgerExistsSQL, ledgerID).Scan(&exists); err != nil {
		return 0, false, err
	}
	if !exists {
		return 0, false, attendance.ErrLedgerNotFound
	}

	var position int
	if err := tx.QueryRowContext(ctx, nextPositionSQL, ledgerID).Scan(&position); err != nil {
		return 0, false, err
	}
	res, err := tx.ExecContext(ctx, query, ledgerID, position, c[0], c[1], c[2], c[3], c[4], c[5], c[6])
	if err != nil {
		return 0, false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	if affected == 0 {
		return 0, false, nil
	}
	if err := tx.Commit(); err != nil {
		return 0, false, err
	}
	return position, true, nil
}
