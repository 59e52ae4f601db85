package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Ledger   LedgerConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// DSN builds the postgres connection string
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// LedgerConfig holds the financial-ledger policy settings
type LedgerConfig struct {
	// Timezone the daily reporting period is computed in
	Timezone string
	// CutoverHour is the hour at which the business day closes; activity at
	// or after it books into the next calendar date
	CutoverHour int
	// HistoricalCutover (YYYY-MM-DD): orders whose encoded date precedes it
	// import as historical data with no balance check and no cash movement
	HistoricalCutover string
	// OpeningBalance seeds liquid funds on first boot
	OpeningBalance float64
	// DefaultGroup is the attribution group used when none is supplied
	DefaultGroup string
}

// HistoricalCutoverDate parses the configured cutover date.
func (l *LedgerConfig) HistoricalCutoverDate() (time.Time, error) {
	return time.Parse("2006-01-02", l.HistoricalCutover)
}

// Load reads configuration from file and environment.
// Priority (highest to lowest):
// 1. Environment variables with LOANBOOK_ prefix (e.g., LOANBOOK_DATABASE_PASSWORD)
// 2. config.yaml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("LOANBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
			IdleTimeout:  v.GetDuration("http.idle_timeout"),
		},
		Ledger: LedgerConfig{
			Timezone:          v.GetString("ledger.timezone"),
			CutoverHour:       v.GetInt("ledger.cutover_hour"),
			HistoricalCutover: v.GetString("ledger.historical_cutover"),
			OpeningBalance:    v.GetFloat64("ledger.opening_balance"),
			DefaultGroup:      v.GetString("ledger.default_group"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "loanbook")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "loanbook")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "loanbook")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30)
	v.SetDefault("database.conn_max_idle_time", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 15*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)

	v.SetDefault("ledger.timezone", "Asia/Shanghai")
	v.SetDefault("ledger.cutover_hour", 23)
	v.SetDefault("ledger.historical_cutover", "2025-11-25")
	v.SetDefault("ledger.opening_balance", 100000)
	v.SetDefault("ledger.default_group", "S01")
}

// Validate checks configuration invariants that would otherwise only fail at
// first use.
func (c *Config) Validate() error {
	if c.Ledger.CutoverHour < 0 || c.Ledger.CutoverHour > 23 {
		return fmt.Errorf("ledger.cutover_hour must be between 0 and 23, got %d", c.Ledger.CutoverHour)
	}
	if _, err := c.Ledger.HistoricalCutoverDate(); err != nil {
		return fmt.Errorf("ledger.historical_cutover must be YYYY-MM-DD: %w", err)
	}
	if c.Ledger.DefaultGroup == "" {
		return fmt.Errorf("ledger.default_group must not be empty")
	}
	return nil
}
