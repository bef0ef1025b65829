package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // zone database for images without one

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	backfillLayout = "2006-01-02"
)

type Config struct {
	Env       string          `yaml:"env" env:"ENV" env-default:"local"`
	Grpc      GrpcConfig      `yaml:"grpc"`
	Storage   StorageConfig   `yaml:"storage"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	Chart     ChartConfig     `yaml:"chart"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Collector CollectorConfig `yaml:"collector"`
}

type GrpcConfig struct {
	Port     int    `yaml:"port" env:"GRPC_PORT" env-default:"8080"`
	APIToken string `yaml:"api_token" env:"API_TOKEN" env-default:"dev-token"`
}

type StorageConfig struct {
	Driver     string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"essentials.db"`
}

type PostgresConfig struct {
	Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password string `yaml:"password" env:"DB_PASSWORD" env-default:"postgres"`
	Name     string `yaml:"name" env:"DB_NAME" env-default:"essentials"`
	SSLMode  string `yaml:"ssl_mode" env:"DB_SSL_MODE" env-default:"disable"`
}

// DSN builds a lib/pq connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Name, p.SSLMode)
}

type RedisConfig struct {
	Enabled    bool          `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Addr       string        `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password   string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB         int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	StatsTTL   time.Duration `yaml:"stats_ttl" env:"REDIS_STATS_TTL" env-default:"1m"`
	CandlesTTL time.Duration `yaml:"candles_ttl" env:"REDIS_CANDLES_TTL" env-default:"24h"`
}

type ChartConfig struct {
	// Timezone is the IANA zone weekly candles are bucketed in
	Timezone string `yaml:"timezone" env:"CHART_TIMEZONE" env-default:"UTC"`
}

type DashboardConfig struct {
	// Workers bounds concurrent stats computations; 0 means GOMAXPROCS
	Workers int `yaml:"workers" env:"DASHBOARD_WORKERS" env-default:"0"`
}

type CatalogConfig struct {
	// Path to a catalog YAML file; empty uses the built-in catalog
	Path          string `yaml:"path" env:"CATALOG_PATH"`
	SampleHistory bool   `yaml:"sample_history" env:"CATALOG_SAMPLE_HISTORY" env-default:"false"`
}

type CollectorConfig struct {
	// EIAAPIKey enables the gas price collector when set
	EIAAPIKey  string `yaml:"eia_api_key" env:"EIA_API_KEY"`
	EIABaseURL string `yaml:"eia_base_url" env:"EIA_BASE_URL" env-default:"https://api.eia.gov/v2/petroleum/pri/gnd/data/"`
	Cron       string `yaml:"cron" env:"COLLECTOR_CRON" env-default:"0 0 18 * * 2"`
	// BackfillSince (YYYY-MM-DD) imports weekly history from that date on startup
	BackfillSince string `yaml:"backfill_since" env:"COLLECTOR_BACKFILL_SINCE"`
}

// Enabled reports whether gas prices should be collected
func (c CollectorConfig) Enabled() bool {
	return c.EIAAPIKey != ""
}

// Backfill returns the start of the history import, if one is configured
func (c CollectorConfig) Backfill() (time.Time, bool) {
	if c.BackfillSince == "" {
		return time.Time{}, false
	}
	since, err := time.Parse(backfillLayout, c.BackfillSince)
	if err != nil {
		return time.Time{}, false
	}
	return since, true
}

// MustLoad loads the configuration and panics on failure
func MustLoad() *Config {
	cfg, err := Load(fetchConfigPath())
	if err != nil {
		panic("cannot load config: " + err.Error())
	}
	return cfg
}

// Load reads the YAML file at path with environment overrides.
// An empty path reads the environment only
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read env: %w", err)
		}
	} else {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("storage.driver must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Storage.Driver))
	}

	if c.Storage.Driver == DriverSQLite && c.Storage.SQLitePath == "" {
		errs = append(errs, errors.New("storage.sqlite_path is required for the sqlite driver"))
	}

	if c.Grpc.Port <= 0 || c.Grpc.Port > 65535 {
		errs = append(errs, fmt.Errorf("grpc.port out of range: %d", c.Grpc.Port))
	}

	if c.Grpc.APIToken == "" {
		errs = append(errs, errors.New("grpc.api_token is required"))
	}

	if _, err := time.LoadLocation(c.Chart.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("chart.timezone: %w", err))
	}

	if c.Collector.BackfillSince != "" {
		if _, err := time.Parse(backfillLayout, c.Collector.BackfillSince); err != nil {
			errs = append(errs, fmt.Errorf("collector.backfill_since must be YYYY-MM-DD: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Location returns the chart timezone, UTC if it cannot be loaded
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Chart.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "config path")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
