package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvUserID   = "STOREFRONT_USER_ID"
	EnvDBDriver = "STOREFRONT_DB_DRIVER"
	EnvDBDSN    = "STOREFRONT_DB_DSN"
	EnvDBHost   = "STOREFRONT_DB_HOST"
	EnvDBUser   = "STOREFRONT_DB_USER"
	EnvDBName   = "STOREFRONT_DB_NAME"

	EnvRedisEnabled = "STOREFRONT_REDIS_ENABLED"
	EnvRedisURL     = "STOREFRONT_REDIS_URL"

	EnvShippingFeeCents       = "STOREFRONT_SHIPPING_FEE_CENTS"
	EnvFreeShippingThreshold  = "STOREFRONT_FREE_SHIPPING_THRESHOLD_CENTS"
	EnvTaxPercent             = "STOREFRONT_TAX_PERCENT"
	EnvPromoDiscountPercent   = "STOREFRONT_PROMO_DISCOUNT_PERCENT"
	EnvVouchers               = "STOREFRONT_VOUCHERS"
	EnvCatalogBaseURL         = "STOREFRONT_CATALOG_BASE_URL"
	EnvMetricsAddr            = "STOREFRONT_METRICS_ADDR"
	defaultSQLiteDSN          = "file:storefront.db?_foreign_keys=on"
	defaultPostgresSSLMode    = "disable"
	defaultPostgresPort       = 5432
	defaultCatalogHTTPTimeout = 10 * time.Second
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Pricing  PricingConfig
	Vouchers VoucherConfig
	Catalog  CatalogConfig
	Metrics  MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	UserID       string `envconfig:"STOREFRONT_USER_ID" default:"local"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"true"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the local file-backed store is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	Enabled      bool          `envconfig:"STOREFRONT_REDIS_ENABLED" default:"false"`
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"4"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"3s"`
	CartTTL      time.Duration `envconfig:"STOREFRONT_REDIS_CART_TTL" default:"720h"`
}

// PricingConfig feeds the shipping, tax and promotional discount policies.
type PricingConfig struct {
	ShippingFeeCents           int64           `envconfig:"STOREFRONT_SHIPPING_FEE_CENTS" default:"500"`
	FreeShippingThresholdCents int64           `envconfig:"STOREFRONT_FREE_SHIPPING_THRESHOLD_CENTS" default:"0"`
	TaxPercent                 decimal.Decimal `envconfig:"STOREFRONT_TAX_PERCENT" default:"8"`
	PromoDiscountPercent       decimal.Decimal `envconfig:"STOREFRONT_PROMO_DISCOUNT_PERCENT" default:"0"`
}

func (p PricingConfig) validate() error {
	if p.ShippingFeeCents < 0 {
		return fmt.Errorf("%s must be non-negative", EnvShippingFeeCents)
	}
	if p.FreeShippingThresholdCents < 0 {
		return fmt.Errorf("%s must be non-negative", EnvFreeShippingThreshold)
	}
	hundred := decimal.NewFromInt(100)
	if p.TaxPercent.IsNegative() || p.TaxPercent.GreaterThan(hundred) {
		return fmt.Errorf("%s must be within 0..100", EnvTaxPercent)
	}
	if p.PromoDiscountPercent.IsNegative() || p.PromoDiscountPercent.GreaterThan(hundred) {
		return fmt.Errorf("%s must be within 0..100", EnvPromoDiscountPercent)
	}
	return nil
}

// VoucherConfig lists voucher codes as CODE:percent:10 or CODE:fixed:500 entries.
type VoucherConfig struct {
	Specs []string `envconfig:"STOREFRONT_VOUCHERS" default:""`
}

type CatalogConfig struct {
	BaseURL  string        `envconfig:"STOREFRONT_CATALOG_BASE_URL" default:"https://dummyjson.com"`
	Category string        `envconfig:"STOREFRONT_CATALOG_CATEGORY" default:"groceries"`
	Timeout  time.Duration `envconfig:"STOREFRONT_CATALOG_TIMEOUT" default:"10s"`
}

// HTTPTimeout returns the configured timeout or the package default.
func (c CatalogConfig) HTTPTimeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultCatalogHTTPTimeout
	}
	return c.Timeout
}

type MetricsConfig struct {
	Addr string `envconfig:"STOREFRONT_METRICS_ADDR" default:""`
}

// Enabled reports whether the ops listener should be started.
func (m MetricsConfig) Enabled() bool {
	return strings.TrimSpace(m.Addr) != ""
}

func (db *DBConfig) ensureDSN() error {
	driver := strings.ToLower(strings.TrimSpace(db.Driver))
	switch driver {
	case DriverSQLite:
		db.Driver = driver
		if db.DSN == "" {
			db.DSN = defaultSQLiteDSN
		}
		return nil
	case DriverPostgres:
		db.Driver = driver
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", EnvDBDriver, DriverSQLite, DriverPostgres, db.Driver)
	}

	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	port := db.LegacyPort
	if port == 0 {
		port = defaultPostgresPort
	}
	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, port),
		Path:   db.LegacyName,
	}

	sslMode := db.LegacySSLMode
	if sslMode == "" {
		sslMode = defaultPostgresSSLMode
	}
	q := u.Query()
	q.Set("sslmode", sslMode)
	u.RawQuery = q.Encode()

	db.DSN = u.String()
	return nil
}
