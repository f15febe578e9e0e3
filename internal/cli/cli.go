package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"timesheet/internal/domain/attendance"
	"timesheet/internal/platform/clock"
	"timesheet/internal/platform/config"
	"timesheet/internal/platform/ledger"
	"timesheet/internal/platform/logging"
)

// App holds what the commands need. Tests swap the hooks for in-memory ones.
type App struct {
	LoadConfig  func() (config.Config, error)
	OpenBackend func(ctx context.Context, cfg config.Config) (*ledger.Backend, error)
	NewClock    func(cfg config.Config) (attendance.Clock, error)
}

func NewApp() *App {
	return &App{
		LoadConfig:  config.Load,
		OpenBackend: ledger.Open,
		NewClock: func(cfg config.Config) (attendance.Clock, error) {
			return clock.New(cfg.TimeZone)
		},
	}
}

func (a *App) config() (config.Config, error) {
	cfg, err := a.LoadConfig()
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	slog.SetDefault(logging.New(os.Stderr, cfg.LogLevel))
	return cfg, nil
}

// withService opens the ledger backend for the duration of fn.
func (a *App) withService(ctx context.Context, fn func(cfg config.Config, service *attendance.Service) error) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	clk, err := a.NewClock(cfg)
	if err != nil {
		return fmt.Errorf("time zone: %w", err)
	}
	backend, err := a.OpenBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s ledger: %w", cfg.LedgerBackend, err)
	}
	defer backend.Close()

	service := attendance.NewService(backend.Store, clk).WithDefaultProject(cfg.DefaultProject)
	return fn(cfg, service)
}

func Execute() {
	if err := SetupCommands(NewApp()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
