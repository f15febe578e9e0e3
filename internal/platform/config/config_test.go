package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TIMESHEET_CONFIG", "")
	t.Setenv("LEDGER_BACKEND", "")
	t.Setenv("TIME_ZONE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LedgerBackend != BackendXLSX || cfg.TimeZone != "Africa/Maputo" || cfg.DefaultProject != "--" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timesheet.yaml")
	body := "ledger_backend: sqlite\nsqlite_path: /tmp/ledger.db\ntoken_ttl: 30m\nrecent_records: 5\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TIMESHEET_CONFIG", path)
	t.Setenv("LEDGER_BACKEND", "")
	t.Setenv("RECENT_RECORDS", "7")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LedgerBackend != BackendSQLite || cfg.SQLitePath != "/tmp/ledger.db" {
		t.Fatalf("expected file values, got %+v", cfg)
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Fatalf("expected 30m token ttl, got %s", cfg.TokenTTL)
	}
	if cfg.RecentRecords != 7 {
		t.Fatalf("expected env to override recent records, got %d", cfg.RecentRecords)
	}
	if cfg.RateLimitPerMinute != 60 {
		t.Fatalf("expected malformed env to fall back, got %d", cfg.RateLimitPerMinute)
	}
}

func TestLoadBackendIsLowercased(t *testing.T) {
	t.Setenv("TIMESHEET_CONFIG", "")
	t.Setenv("LEDGER_BACKEND", "Memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LedgerBackend != BackendMemory {
		t.Fatalf("expected memory backend, got %q", cfg.LedgerBackend)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("TIMESHEET_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "memory", mutate: func(c *Config) { c.LedgerBackend = BackendMemory }},
		{name: "unknown zone", mutate: func(c *Config) { c.TimeZone = "Mars/Olympus" }, want: "TIME_ZONE"},
		{name: "unknown backend", mutate: func(c *Config) { c.LedgerBackend = "sheets" }, want: "LEDGER_BACKEND"},
		{name: "postgres without url", mutate: func(c *Config) { c.LedgerBackend = BackendPostgres }, want: "DATABASE_URL"},
		{name: "firestore without project", mutate: func(c *Config) { c.LedgerBackend = BackendFirestore }, want: "FIRESTORE_PROJECT"},
		{name: "sqlite without path", mutate: func(c *Config) { c.LedgerBackend = BackendSQLite; c.SQLitePath = " " }, want: "SQLITE_PATH"},
		{name: "production without secret", mutate: func(c *Config) { c.Environment = "production" }, want: "JWT_SECRET"},
		{name: "password without secret", mutate: func(c *Config) { c.AdminPasswordHash = "$2a$10$hash" }, want: "JWT_SECRET"},
		{name: "tiny body limit", mutate: func(c *Config) { c.MaxBodyBytes = 10 }, want: "MAX_BODY_BYTES"},
		{name: "no rate limit", mutate: func(c *Config) { c.RateLimitPerMinute = 0 }, want: "RATE_LIMIT_PER_MINUTE"},
		{name: "no recent records", mutate: func(c *Config) { c.RecentRecords = 0 }, want: "RECENT_RECORDS"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.TimeZone = "UTC"
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.want == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}
