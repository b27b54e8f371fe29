package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/maltedev/supplier-extractor/internal/models"
	"github.com/maltedev/supplier-extractor/internal/pricing"
	"github.com/maltedev/supplier-extractor/internal/stealth"
)

type Config struct {
	Server     ServerConfig
	Extraction ExtractionConfig
	Pricing    PricingConfig
	Browser    BrowserConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Import     ImportConfig
	Logging    LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type ExtractionConfig struct {
	Locale                     string
	Currency                   string
	MinDelay                   time.Duration
	MaxDelay                   time.Duration
	UserAgentRotation          bool
	UserAgents                 []string
	SingleVariantColorOverride string
	FetchTimeout               time.Duration
	NavigateTimeout            time.Duration
	SettleDelay                time.Duration
	IncludeRawHTML             bool
}

type PricingConfig struct {
	TargetCurrency     string
	Rates              map[string]decimal.Decimal
	MarginMultiplier   decimal.Decimal
	CompareMultiplier  decimal.Decimal
	DefaultSourcePrice decimal.Decimal
}

type BrowserConfig struct {
	Headless bool
	// Disabled leaves browser-backed suppliers with their static strategies
	// only, for hosts without a playwright driver.
	Disabled bool
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ImportConfig paces the background import worker.
type ImportConfig struct {
	Enabled       bool
	InterCallMin  time.Duration
	InterCallMax  time.Duration
	PollInterval  time.Duration
	RelayInterval time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	defaults := models.DefaultExtractionOptions()
	policy := pricing.DefaultPolicy()

	rates, err := getRatesOrDefault("PRICING_RATES", policy.Rates)
	if err != nil {
		return nil, err
	}
	margin, err := getDecimalOrDefault("PRICING_MARGIN", policy.MarginMultiplier)
	if err != nil {
		return nil, err
	}
	compare, err := getDecimalOrDefault("PRICING_COMPARE_MULTIPLIER", policy.CompareMultiplier)
	if err != nil {
		return nil, err
	}
	defaultPrice, err := getDecimalOrDefault("PRICING_DEFAULT_SOURCE_PRICE", policy.DefaultSourcePrice)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getStringSliceOrDefault("SERVER_ALLOWED_ORIGINS", []string{"*"}),
		},
		Extraction: ExtractionConfig{
			Locale:                     getEnvOrDefault("EXTRACT_LOCALE", defaults.Locale),
			Currency:                   strings.ToUpper(getEnvOrDefault("EXTRACT_CURRENCY", defaults.Currency)),
			MinDelay:                   getDurationOrDefault("EXTRACT_MIN_DELAY", defaults.MinDelay),
			MaxDelay:                   getDurationOrDefault("EXTRACT_MAX_DELAY", defaults.MaxDelay),
			UserAgentRotation:          getBoolOrDefault("EXTRACT_USER_AGENT_ROTATION", defaults.UserAgentRotation),
			UserAgents:                 getStringSliceOrDefault("EXTRACT_USER_AGENTS", stealth.DefaultUserAgents),
			SingleVariantColorOverride: os.Getenv("EXTRACT_SINGLE_VARIANT_COLOR"),
			FetchTimeout:               getDurationOrDefault("EXTRACT_FETCH_TIMEOUT", defaults.FetchTimeout),
			NavigateTimeout:            getDurationOrDefault("EXTRACT_NAVIGATE_TIMEOUT", defaults.NavigateTimeout),
			SettleDelay:                getDurationOrDefault("EXTRACT_SETTLE_DELAY", defaults.SettleDelay),
			IncludeRawHTML:             getBoolOrDefault("EXTRACT_INCLUDE_RAW_HTML", false),
		},
		Pricing: PricingConfig{
			TargetCurrency:     strings.ToUpper(getEnvOrDefault("PRICING_TARGET_CURRENCY", policy.TargetCurrency)),
			Rates:              rates,
			MarginMultiplier:   margin,
			CompareMultiplier:  compare,
			DefaultSourcePrice: defaultPrice,
		},
		Browser: BrowserConfig{
			Headless: getBoolOrDefault("BROWSER_HEADLESS", true),
			Disabled: getBoolOrDefault("BROWSER_DISABLED", false),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			DBName:   getEnvOrDefault("DB_NAME", "supplier_extractor"),
			SSLMode:  getEnvOrDefault("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
		},
		Import: ImportConfig{
			Enabled:       getBoolOrDefault("IMPORT_ENABLED", true),
			InterCallMin:  getDurationOrDefault("IMPORT_INTER_CALL_MIN", 3*time.Second),
			InterCallMax:  getDurationOrDefault("IMPORT_INTER_CALL_MAX", 8*time.Second),
			PollInterval:  getDurationOrDefault("IMPORT_POLL_INTERVAL", 2*time.Second),
			RelayInterval: getDurationOrDefault("IMPORT_RELAY_INTERVAL", 5*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Extraction.MinDelay < 0 {
		return fmt.Errorf("EXTRACT_MIN_DELAY cannot be negative")
	}

	if c.Extraction.MinDelay > c.Extraction.MaxDelay {
		return fmt.Errorf("EXTRACT_MIN_DELAY cannot be greater than EXTRACT_MAX_DELAY")
	}

	if len(c.Extraction.Currency) != 3 {
		return fmt.Errorf("EXTRACT_CURRENCY must be a three-letter code")
	}

	if c.Import.InterCallMin > c.Import.InterCallMax {
		return fmt.Errorf("IMPORT_INTER_CALL_MIN cannot be greater than IMPORT_INTER_CALL_MAX")
	}

	if c.Import.PollInterval <= 0 || c.Import.RelayInterval <= 0 {
		return fmt.Errorf("IMPORT_POLL_INTERVAL and IMPORT_RELAY_INTERVAL must be positive")
	}

	if err := c.PricingPolicy().Validate(); err != nil {
		return fmt.Errorf("pricing: %w", err)
	}

	return nil
}

// ExtractionOptions converts the extraction section into per-call options.
func (c *Config) ExtractionOptions() models.ExtractionOptions {
	e := c.Extraction
	return models.ExtractionOptions{
		Locale:                     e.Locale,
		Currency:                   e.Currency,
		MinDelay:                   e.MinDelay,
		MaxDelay:                   e.MaxDelay,
		UserAgentRotation:          e.UserAgentRotation,
		UserAgents:                 e.UserAgents,
		SingleVariantColorOverride: e.SingleVariantColorOverride,
		FetchTimeout:               e.FetchTimeout,
		NavigateTimeout:            e.NavigateTimeout,
		SettleDelay:                e.SettleDelay,
		IncludeRawHTML:             e.IncludeRawHTML,
	}
}

// PricingPolicy converts the pricing section into a pricing.Policy.
func (c *Config) PricingPolicy() pricing.Policy {
	p := c.Pricing
	return pricing.Policy{
		TargetCurrency:     p.TargetCurrency,
		Rates:              p.Rates,
		MarginMultiplier:   p.MarginMultiplier,
		CompareMultiplier:  p.CompareMultiplier,
		DefaultSourcePrice: p.DefaultSourcePrice,
	}
}

// DatabaseURL returns a postgres connection string for pgx.
func (c *Config) DatabaseURL() string {
	d := c.Database
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

// NewLogger builds the process logger. Format "text" selects the text
// handler; anything else is JSON.
func (c LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return defaultValue
}

func getDecimalOrDefault(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// getRatesOrDefault parses "USD=10.5,EUR=11.5". Listed codes override the
// defaults; the rest are kept.
func getRatesOrDefault(key string, defaults map[string]decimal.Decimal) (map[string]decimal.Decimal, error) {
	rates := make(map[string]decimal.Decimal, len(defaults))
	for code, rate := range defaults {
		rates[code] = rate
	}

	value := os.Getenv(key)
	if value == "" {
		return rates, nil
	}

	for _, pair := range strings.Split(value, ",") {
		code, raw, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, fmt.Errorf("%s: malformed pair %q", key, pair)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%s: rate for %s: %w", key, code, err)
		}
		rates[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	return rates, nil
}
