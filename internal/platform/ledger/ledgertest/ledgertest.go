// Package ledgertest holds the behaviour every ledger backend must share.
package ledgertest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"timesheet/internal/domain/attendance"
)

// Run exercises store against the ledger contract. newStore must return an
// empty store; ledger ids are prefixed with prefix so shared databases can be
// reused between runs.
func Run(t *testing.T, prefix string, newStore func(t *testing.T) attendance.LedgerStore) {
	t.Helper()
	id := func(name string) string { return prefix + name }

	t.Run("missing ledger", func(t *testing.T) {
		store := newStore(t)
		if _, err := store.ReadAllRows(context.Background(), id("NONE")); !errors.Is(err, attendance.ErrLedgerNotFound) {
			t.Fatalf("expected ErrLedgerNotFound, got %v", err)
		}
	})

	t.Run("ensure writes header once", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		for i := 0; i < 2; i++ {
			if err := store.EnsureLedger(ctx, id("AM01")); err != nil {
				t.Fatalf("ensure %d: %v", i, err)
			}
		}
		rows := mustRows(t, store, id("AM01"))
		if len(rows) != 1 || !attendance.IsHeader(rows[0]) {
			t.Fatalf("expected only the header, got %v", rows)
		}
	})

	t.Run("append then update", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		ledgerID := id("BX02")
		if err := store.EnsureLedger(ctx, ledgerID); err != nil {
			t.Fatalf("ensure: %v", err)
		}

		open := attendance.DayRecord{Date: "2024-01-10", Weekday: "Wed", Project: "--", CheckIn: "2024-01-10 08:00:00"}
		if err := store.AppendRow(ctx, ledgerID, open.Row()); err != nil {
			t.Fatalf("append: %v", err)
		}
		second := attendance.DayRecord{Date: "2024-01-11", Weekday: "Thu", Project: "Atlas", CheckIn: "2024-01-11 07:45:00"}
		if err := store.AppendRow(ctx, ledgerID, second.Row()); err != nil {
			t.Fatalf("append second: %v", err)
		}

		closed := open
		closed.CheckOut = "2024-01-10 17:30:00"
		hours, _ := attendance.ComputeHours(closed.CheckIn, closed.CheckOut)
		closed.Hours.Decimal, closed.Hours.Valid = hours, true
		if err := store.UpdateRow(ctx, ledgerID, 2, closed.Row()); err != nil {
			t.Fatalf("update: %v", err)
		}

		records := attendance.RecordsFromRows(mustRows(t, store, ledgerID))
		if len(records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(records))
		}
		got := records[0]
		if got.Position != 2 || got.CheckOut != "2024-01-10 17:30:00" || got.Hours.Decimal.String() != "9.5" {
			t.Fatalf("unexpected updated record: %+v", got)
		}
		if records[1].Position != 3 || records[1].Project != "Atlas" || records[1].CheckOut != "" {
			t.Fatalf("unexpected second record: %+v", records[1])
		}
	})

	t.Run("update out of range", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		ledgerID := id("CX03")
		if err := store.EnsureLedger(ctx, ledgerID); err != nil {
			t.Fatalf("ensure: %v", err)
		}
		for _, position := range []int{attendance.HeaderPosition, 9} {
			err := store.UpdateRow(ctx, ledgerID, position, []string{"2024-01-10"})
			if !errors.Is(err, attendance.ErrRowNotFound) {
				t.Fatalf("position %d: expected ErrRowNotFound, got %v", position, err)
			}
		}
	})

	t.Run("list ledgers", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		for _, name := range []string{"ZZ09", "AA01"} {
			if err := store.EnsureLedger(ctx, id(name)); err != nil {
				t.Fatalf("ensure %s: %v", name, err)
			}
		}
		ids, err := store.ListLedgers(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		var seen []string
		for _, got := range ids {
			if got == id("AA01") || got == id("ZZ09") {
				seen = append(seen, got)
			}
		}
		if fmt.Sprint(seen) != fmt.Sprint([]string{id("AA01"), id("ZZ09")}) {
			t.Fatalf("expected sorted ids, got %v", ids)
		}
	})

	t.Run("conditional append", func(t *testing.T) {
		store := newStore(t)
		appender, ok := store.(attendance.ConditionalAppender)
		if !ok {
			t.Skip("backend does not support conditional append")
		}
		ctx := context.Background()
		ledgerID := id("DX04")
		if err := store.EnsureLedger(ctx, ledgerID); err != nil {
			t.Fatalf("ensure: %v", err)
		}
		row := attendance.DayRecord{Date: "2024-01-10", Weekday: "Wed", Project: "--", CheckIn: "2024-01-10 08:00:00"}.Row()

		position, appended, err := appender.AppendRowIfAbsent(ctx, ledgerID, "2024-01-10", row)
		if err != nil || !appended || position != 2 {
			t.Fatalf("expected first append at 2, got %d %v %v", position, appended, err)
		}
		_, appended, err = appender.AppendRowIfAbsent(ctx, ledgerID, "2024-01-10", row)
		if err != nil || appended {
			t.Fatalf("expected second append to be refused, got %v %v", appended, err)
		}
		if rows := mustRows(t, store, ledgerID); len(rows) != 2 {
			t.Fatalf("expected one data row, got %d rows", len(rows))
		}
	})

	t.Run("concurrent appends", func(t *testing.T) {
		t.Run("distinct ledgers", func(t *testing.T) {
			store := newStore(t)
			ctx := context.Background()
			const ledgers = 8
			errs := make(chan error, ledgers)
			var wg sync.WaitGroup
			for i := 0; i < ledgers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					ledgerID := id(fmt.Sprintf("C%02d", i))
					if err := store.EnsureLedger(ctx, ledgerID); err != nil {
						errs <- fmt.Errorf("ensure %s: %w", ledgerID, err)
						return
					}
					row := attendance.DayRecord{Date: "2024-01-10", Weekday: "Wed", Project: "--", CheckIn: "2024-01-10 08:00:00"}.Row()
					if appender, ok := store.(attendance.ConditionalAppender); ok {
						if _, appended, err := appender.AppendRowIfAbsent(ctx, ledgerID, "2024-01-10", row); err != nil || !appended {
							errs <- fmt.Errorf("append %s: appended=%v err=%v", ledgerID, appended, err)
						}
						return
					}
					if err := store.AppendRow(ctx, ledgerID, row); err != nil {
						errs <- fmt.Errorf("append %s: %w", ledgerID, err)
					}
				}(i)
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				t.Error(err)
			}
			for i := 0; i < ledgers; i++ {
				if rows := mustRows(t, store, id(fmt.Sprintf("C%02d", i))); len(rows) != 2 {
					t.Fatalf("ledger C%02d: expected header plus one row, got %d rows", i, len(rows))
				}
			}
		})

		t.Run("same date", func(t *testing.T) {
			store := newStore(t)
			appender, ok := store.(attendance.ConditionalAppender)
			if !ok {
				t.Skip("backend does not support conditional append")
			}
			ctx := context.Background()
			ledgerID := id("RX05")
			if err := store.EnsureLedger(ctx, ledgerID); err != nil {
				t.Fatalf("ensure: %v", err)
			}
			row := attendance.DayRecord{Date: "2024-01-10", Weekday: "Wed", Project: "--", CheckIn: "2024-01-10 08:00:00"}.Row()

			const writers = 4
			var (
				wg       sync.WaitGroup
				mu       sync.Mutex
				appended int
				failures []error
			)
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, ok, err := appender.AppendRowIfAbsent(ctx, ledgerID, "2024-01-10", row)
					mu.Lock()
					defer mu.Unlock()
					if err != nil {
						failures = append(failures, err)
						return
					}
					if ok {
						appended++
					}
				}()
			}
			wg.Wait()
			for _, err := range failures {
				t.Errorf("conditional append: %v", err)
			}
			if appended != 1 {
				t.Fatalf("expected exactly one append, got %d", appended)
			}
			if rows := mustRows(t, store, ledgerID); len(rows) != 2 {
				t.Fatalf("expected one data row, got %d rows", len(rows))
			}
		})
	})
}

func mustRows(t *testing.T, store attendance.LedgerStore, ledgerID string) [][]string {
	t.Helper()
	rows, err := store.ReadAllRows(context.Background(), ledgerID)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	return rows
}
