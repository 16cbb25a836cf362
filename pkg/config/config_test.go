package config

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoad_Defaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "dev" {
		t.Fatalf("expected App.Env to be dev, got %q", cfg.App.Env)
	}
	if !cfg.DB.IsSQLite() {
		t.Fatalf("expected sqlite default driver, got %q", cfg.DB.Driver)
	}
	if cfg.DB.DSN != defaultSQLiteDSN {
		t.Fatalf("unexpected sqlite dsn %q", cfg.DB.DSN)
	}
	if cfg.Pricing.ShippingFeeCents != 500 {
		t.Fatalf("unexpected shipping fee %d", cfg.Pricing.ShippingFeeCents)
	}
	if !cfg.Pricing.TaxPercent.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("unexpected tax percent %s", cfg.Pricing.TaxPercent)
	}
	if cfg.Redis.Enabled {
		t.Fatal("redis should be disabled by default")
	}
	if cfg.Catalog.HTTPTimeout() != 10*time.Second {
		t.Fatalf("unexpected catalog timeout %v", cfg.Catalog.HTTPTimeout())
	}
	if cfg.Metrics.Enabled() {
		t.Fatal("metrics listener should be off by default")
	}
}

func TestLoad_PricingAndVouchers(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvTaxPercent, "7.25")
	t.Setenv(EnvFreeShippingThreshold, "5000")
	t.Setenv(EnvVouchers, "SAVE10:percent:10,FLAT5:fixed:500")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !cfg.Pricing.TaxPercent.Equal(decimal.RequireFromString("7.25")) {
		t.Fatalf("unexpected tax percent %s", cfg.Pricing.TaxPercent)
	}
	if cfg.Pricing.FreeShippingThresholdCents != 5000 {
		t.Fatalf("unexpected threshold %d", cfg.Pricing.FreeShippingThresholdCents)
	}
	if len(cfg.Vouchers.Specs) != 2 || cfg.Vouchers.Specs[1] != "FLAT5:fixed:500" {
		t.Fatalf("unexpected voucher specs %v", cfg.Vouchers.Specs)
	}
}

func TestLoad_RejectsOutOfRangeTax(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvTaxPercent, "150")

	if _, err := Load(); err == nil {
		t.Fatal("expected out-of-range tax to fail")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_PostgresLegacyDSN(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvDBDriver, "postgres")
	t.Setenv(EnvDBHost, "db.local")
	t.Setenv(EnvDBUser, "shop")
	t.Setenv(EnvDBName, "storefront")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	want := "postgres://shop@db.local:5432/storefront?sslmode=disable"
	if cfg.DB.DSN != want {
		t.Fatalf("expected %q, got %q", want, cfg.DB.DSN)
	}
}

func TestLoad_PostgresMissingLegacyFields(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvDBDriver, "postgres")

	if _, err := Load(); err == nil {
		t.Fatal("expected missing postgres settings to fail")
	}
}

func TestLoad_UnknownDriver(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvDBDriver, "mysql")

	if _, err := Load(); err == nil {
		t.Fatal("expected unknown driver to fail")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "dev")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
}
