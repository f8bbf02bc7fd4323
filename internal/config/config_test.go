package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Budget.HolidayCountry != "NONE" || cfg.Budget.AtRiskThreshold != 80 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if GlobalConfig != cfg {
		t.Error("Load() should set GlobalConfig")
	}
}

func TestLoad_FileKeepsUnsetDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "budget:\n  holiday_country: US\nscheduler:\n  budget_digest_cron: \"\"\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Budget.HolidayCountry != "US" {
		t.Errorf("HolidayCountry = %q", cfg.Budget.HolidayCountry)
	}
	if cfg.Budget.AtRiskThreshold != 80 || cfg.Server.Port != "8080" {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if cfg.Scheduler.BudgetDigestCron != "" {
		t.Errorf("BudgetDigestCron = %q, want disabled", cfg.Scheduler.BudgetDigestCron)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("server: [oops"), 0644)
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HOLIDAY_COUNTRY", "gb")
	t.Setenv("JWT_EXPIRE_HOUR", "6")
	t.Setenv("RATE_LIMIT_RPS", "not-a-number")
	t.Setenv("DB_DSN", "file:test.db")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Budget.HolidayCountry != "GB" {
		t.Errorf("HolidayCountry = %q, want GB", cfg.Budget.HolidayCountry)
	}
	if cfg.JWT.ExpireHour != 6 {
		t.Errorf("ExpireHour = %d, want 6", cfg.JWT.ExpireHour)
	}
	if cfg.RateLimit.RPS != 20 {
		t.Errorf("RPS = %v, invalid env value should be ignored", cfg.RateLimit.RPS)
	}
	if cfg.Database.DSN != "file:test.db" {
		t.Errorf("DSN = %q", cfg.Database.DSN)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Budget.HolidayCountry = "CN"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Budget.HolidayCountry != "CN" {
		t.Errorf("HolidayCountry = %q, want CN", loaded.Budget.HolidayCountry)
	}
}
