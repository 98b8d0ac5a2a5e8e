package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	toml "github.com/pelletier/go-toml/v2"

	"pennywise/internal/core"
)

// Backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

var validBackends = []string{BackendMemory, BackendFile, BackendSQLite}

type Config struct {
	// Storage
	DataBackend   string
	SQLiteDBPath  string
	DataDirectory string

	// AMQP, optional: an empty URL disables event publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID      string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Worker
	SyncInterval time.Duration

	// Display
	Currency string
	Timezone string

	// Logging
	LogLevel  string
	LogFormat string
}

// fileConfig is the TOML layout of a config file.
type fileConfig struct {
	Storage struct {
		Backend       string `toml:"backend"`
		SQLitePath    string `toml:"sqlite_path"`
		DataDirectory string `toml:"data_directory"`
	} `toml:"storage"`
	AMQP struct {
		URL      string `toml:"url"`
		Exchange string `toml:"exchange"`
		Queue    string `toml:"queue"`
	} `toml:"amqp"`
	Sheets struct {
		SpreadsheetID   string `toml:"spreadsheet_id"`
		CredentialsFile string `toml:"credentials_file"`
		SyncInterval    string `toml:"sync_interval"`
	} `toml:"sheets"`
	Display struct {
		Currency string `toml:"currency"`
		Timezone string `toml:"timezone"`
	} `toml:"display"`
	Logging struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"logging"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		DataBackend:   BackendSQLite,
		SQLiteDBPath:  "./data/pennywise.db",
		DataDirectory: "./data",
		AMQPExchange:  "pennywise",
		AMQPQueue:     "ledger_events",
		SyncInterval:  5 * time.Minute,
		Currency:      core.DefaultCurrency,
		Timezone:      "Local",
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// Load reads the environment on top of the defaults.
func Load() *Config {
	cfg := Defaults()
	applyEnv(cfg)
	return cfg
}

// LoadFile layers defaults, then each TOML file in order, then the
// environment. Missing files are skipped.
func LoadFile(paths ...string) (*Config, error) {
	cfg := Defaults()
	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		var fc fileConfig
		if err := toml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
		if err := cfg.merge(fc); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func (c *Config) merge(fc fileConfig) error {
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&c.DataBackend, fc.Storage.Backend)
	set(&c.SQLiteDBPath, fc.Storage.SQLitePath)
	set(&c.DataDirectory, fc.Storage.DataDirectory)
	set(&c.AMQPURL, fc.AMQP.URL)
	set(&c.AMQPExchange, fc.AMQP.Exchange)
	set(&c.AMQPQueue, fc.AMQP.Queue)
	set(&c.GoogleSpreadsheetID, fc.Sheets.SpreadsheetID)
	set(&c.GoogleServiceAccountFile, fc.Sheets.CredentialsFile)
	set(&c.Currency, fc.Display.Currency)
	set(&c.Timezone, fc.Display.Timezone)
	set(&c.LogLevel, fc.Logging.Level)
	set(&c.LogFormat, fc.Logging.Format)
	if s := strings.TrimSpace(fc.Sheets.SyncInterval); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid sync_interval %q: %w", s, err)
		}
		c.SyncInterval = d
	}
	return nil
}

func applyEnv(c *Config) {
	c.DataBackend = getEnv("DATA_BACKEND", c.DataBackend)
	c.SQLiteDBPath = getEnv("SQLITE_DB_PATH", c.SQLiteDBPath)
	c.DataDirectory = getEnv("DATA_DIRECTORY", c.DataDirectory)

	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)
	c.AMQPQueue = getEnv("AMQP_QUEUE", c.AMQPQueue)

	c.GoogleSpreadsheetID = getEnv("GOOGLE_SPREADSHEET_ID", c.GoogleSpreadsheetID)
	c.GoogleServiceAccountFile = getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", c.GoogleServiceAccountFile))
	c.GoogleServiceAccountJSON = getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", c.GoogleServiceAccountJSON)

	c.SyncInterval = getEnvDuration("SYNC_INTERVAL", c.SyncInterval)

	c.Currency = strings.ToUpper(getEnv("PENNYWISE_CURRENCY", c.Currency))
	c.Timezone = getEnv("PENNYWISE_TIMEZONE", c.Timezone)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
}

// Location resolves Timezone. Invalid names fall back to UTC; Validate
// reports them.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// MirrorEnabled reports whether a spreadsheet is configured.
func (c *Config) MirrorEnabled() bool { return c.GoogleSpreadsheetID != "" }

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errors []string

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case BackendFile:
		if c.DataDirectory == "" {
			errors = append(errors, "data directory cannot be empty when using file backend")
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if c.SyncInterval < 0 {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must not be negative", c.SyncInterval))
	} else if c.SyncInterval > 0 && c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if money.GetCurrency(c.Currency) == nil {
		errors = append(errors, fmt.Sprintf("unknown currency '%s'", c.Currency))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
