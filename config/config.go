// Package config reads the gemhub settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Store kinds.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreGCS    = "gcs"
	StoreS3     = "s3"
	StoreMemory = "memory"
)

// Config holds application configuration
type Config struct {
	Store      string // file, sqlite, gcs, s3 or memory
	LedgerFile string
	SQLitePath string
	GCSBucket  string
	GCSObject  string
	S3Bucket   string
	S3Key      string
	S3Endpoint string // for S3 compatible services, AWS when empty

	ReportingCurrency string
	USDToBRL          decimal.Decimal
	FX                string // fixed or yahoo
	PriceMode         string // simulated or realtime
	RefreshInterval   time.Duration
	StrictSells       bool

	LogLevel  string
	LogPretty bool
	Listen    string

	GeminiModel string
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Store:             StoreFile,
		LedgerFile:        "wallet.jsonl",
		SQLitePath:        "gem.db",
		GCSObject:         "wallet.jsonl",
		S3Key:             "wallet.jsonl",
		ReportingCurrency: "BRL",
		USDToBRL:          decimal.RequireFromString("5.45"),
		FX:                "fixed",
		PriceMode:         "simulated",
		RefreshInterval:   60 * time.Second,
		LogLevel:          "warn",
		Listen:            ":8080",
		GeminiModel:       "gemini-2.5-flash",
	}
}

// Load reads configuration from environment variables, after loading the .env file
// of the working directory if there is one. Variables already set win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads configuration from environment variables only.
func FromEnv() (*Config, error) {
	d := Default()
	cfg := &Config{
		Store:             strings.ToLower(getEnv("GEM_STORE", d.Store)),
		LedgerFile:        getEnv("GEM_LEDGER_FILE", d.LedgerFile),
		SQLitePath:        getEnv("GEM_SQLITE_PATH", d.SQLitePath),
		GCSBucket:         getEnv("GEM_GCS_BUCKET", d.GCSBucket),
		GCSObject:         getEnv("GEM_GCS_OBJECT", d.GCSObject),
		S3Bucket:          getEnv("GEM_S3_BUCKET", d.S3Bucket),
		S3Key:             getEnv("GEM_S3_KEY", d.S3Key),
		S3Endpoint:        getEnv("GEM_S3_ENDPOINT", d.S3Endpoint),
		ReportingCurrency: strings.ToUpper(getEnv("GEM_REPORTING_CURRENCY", d.ReportingCurrency)),
		FX:                strings.ToLower(getEnv("GEM_FX", d.FX)),
		PriceMode:         strings.ToLower(getEnv("GEM_PRICE_MODE", d.PriceMode)),
		StrictSells:       getEnvAsBool("GEM_STRICT_SELLS", d.StrictSells),
		LogLevel:          getEnv("GEM_LOG_LEVEL", d.LogLevel),
		LogPretty:         getEnvAsBool("GEM_LOG_PRETTY", d.LogPretty),
		Listen:            getEnv("GEM_LISTEN", d.Listen),
		GeminiModel:       getEnv("GEMINI_MODEL", d.GeminiModel),
	}

	var err error
	if cfg.USDToBRL, err = getEnvAsDecimal("GEM_USD_BRL", d.USDToBRL); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getEnvAsDuration("GEM_REFRESH_INTERVAL", d.RefreshInterval); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the values are consistent.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreFile:
		if c.LedgerFile == "" {
			return fmt.Errorf("GEM_LEDGER_FILE is required for the file store")
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("GEM_SQLITE_PATH is required for the sqlite store")
		}
	case StoreGCS:
		if c.GCSBucket == "" || c.GCSObject == "" {
			return fmt.Errorf("GEM_GCS_BUCKET and GEM_GCS_OBJECT are required for the gcs store")
		}
	case StoreS3:
		if c.S3Bucket == "" || c.S3Key == "" {
			return fmt.Errorf("GEM_S3_BUCKET and GEM_S3_KEY are required for the s3 store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown GEM_STORE %q, want file, sqlite, gcs, s3 or memory", c.Store)
	}
	if c.ReportingCurrency != "BRL" && c.ReportingCurrency != "USD" {
		return fmt.Errorf("unsupported GEM_REPORTING_CURRENCY %q, want BRL or USD", c.ReportingCurrency)
	}
	if !c.USDToBRL.IsPositive() {
		return fmt.Errorf("GEM_USD_BRL must be positive, got %s", c.USDToBRL)
	}
	if c.FX != "fixed" && c.FX != "yahoo" {
		return fmt.Errorf("unknown GEM_FX %q, want fixed or yahoo", c.FX)
	}
	if c.PriceMode != "simulated" && c.PriceMode != "realtime" {
		return fmt.Errorf("unknown GEM_PRICE_MODE %q, want simulated or realtime", c.PriceMode)
	}
	if c.RefreshInterval < time.Second {
		return fmt.Errorf("GEM_REFRESH_INTERVAL must be at least 1s, got %s", c.RefreshInterval)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
