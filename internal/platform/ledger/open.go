package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"timesheet/internal/domain/attendance"
	"timesheet/internal/platform/config"
	"timesheet/internal/platform/db"
	"timesheet/internal/platform/ledger/fsledger"
	"timesheet/internal/platform/ledger/memledger"
	"timesheet/internal/platform/ledger/pgledger"
	"timesheet/internal/platform/ledger/sqliteledger"
	"timesheet/internal/platform/ledger/xlsxledger"
)

// Backend is a ledger store together with the release of whatever it holds.
type Backend struct {
	Store attendance.LedgerStore
	Name  string
	close func()
}

func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Open builds the store selected by cfg.LedgerBackend.
func Open(ctx context.Context, cfg config.Config) (*Backend, error) {
	switch cfg.LedgerBackend {
	case config.BackendMemory:
		return &Backend{Store: memledger.New(), Name: cfg.LedgerBackend}, nil
	case config.BackendXLSX:
		store, err := xlsxledger.Open(cfg.WorkbookPath)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: store, Name: cfg.LedgerBackend, close: closeLogged(store.Close)}, nil
	case config.BackendSQLite:
		store, err := sqliteledger.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: store, Name: cfg.LedgerBackend, close: closeLogged(store.Close)}, nil
	case config.BackendPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
				pool.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		return &Backend{Store: pgledger.NewStore(pool), Name: cfg.LedgerBackend, close: pool.Close}, nil
	case config.BackendFirestore:
		store, err := fsledger.Open(ctx, cfg.FirestoreProject, cfg.FirestoreCollection)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: store, Name: cfg.LedgerBackend, close: closeLogged(store.Close)}, nil
	default:
		return nil, fmt.Errorf("unsupported ledger backend %q", cfg.LedgerBackend)
	}
}

func closeLogged(fn func() error) func() {
	return func() {
		if err := fn(); err != nil {
			slog.Error("ledger close failed", "err", err)
		}
	}
}
