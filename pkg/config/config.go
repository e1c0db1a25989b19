package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Quota / run limits
	MaxDailyRuns       int
	MaxUniverseSize    int
	MinSuccessToCharge int
	RunBudget          time.Duration
	AutoFillTarget     int
	AutoFillPoolSize   int

	// Market data
	FetchRetries        int
	RetryBaseWait       time.Duration
	RequestsPerSecond   float64
	MinHistoryBars      int
	HistoryLookbackDays int

	// State on disk
	StateDir string
	CacheDir string

	// Licensing
	RequireLicense bool
	PublicKeyPath  string
	LicensePath    string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables
// ⭐ SSOT: this is the only function that calls os.Getenv()
func Load() (*Config, error) {
	loadEnvFile()

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	defaultState := filepath.Join(home, ".factorlab_lite")

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		// Quota / run limits
		MaxDailyRuns:       getEnvAsInt("LITE_MAX_DAILY_RUNS", 3),
		MaxUniverseSize:    getEnvAsInt("LITE_MAX_UNIVERSE_SIZE", 30),
		MinSuccessToCharge: getEnvAsInt("LITE_MIN_SUCCESS_TO_CHARGE", 3),
		RunBudget:          getEnvAsDuration("LITE_RUN_BUDGET", "35s"),
		AutoFillTarget:     getEnvAsInt("LITE_AUTO_FILL_TARGET", 3),
		AutoFillPoolSize:   getEnvAsInt("LITE_AUTO_FILL_POOL_SIZE", 50),

		// Market data
		FetchRetries:        getEnvAsInt("LITE_FETCH_RETRIES", 2),
		RetryBaseWait:       getEnvAsDuration("LITE_RETRY_BASE_WAIT", "800ms"),
		RequestsPerSecond:   getEnvAsFloat("LITE_REQUESTS_PER_SECOND", 5.0),
		MinHistoryBars:      getEnvAsInt("LITE_MIN_HISTORY_BARS", 120),
		HistoryLookbackDays: getEnvAsInt("LITE_HISTORY_LOOKBACK_DAYS", 260),

		// State on disk
		StateDir: getEnv("LITE_STATE_DIR", defaultState),
		CacheDir: getEnv("LITE_CACHE_DIR", filepath.Join(defaultState, "cache")),

		// Licensing
		RequireLicense: getEnvAsBool("LITE_REQUIRE_LICENSE", false),
		PublicKeyPath:  getEnv("LITE_PUBLIC_KEY_PATH", ""),
		LicensePath:    getEnv("LITE_LICENSE_PATH", ""),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are sane
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}
	if c.MaxDailyRuns < 1 {
		return fmt.Errorf("LITE_MAX_DAILY_RUNS must be >= 1")
	}
	if c.MaxUniverseSize < 1 {
		return fmt.Errorf("LITE_MAX_UNIVERSE_SIZE must be >= 1")
	}
	if c.FetchRetries < 1 {
		return fmt.Errorf("LITE_FETCH_RETRIES must be >= 1")
	}
	if c.MinHistoryBars > c.HistoryLookbackDays {
		return fmt.Errorf("LITE_MIN_HISTORY_BARS must not exceed LITE_HISTORY_LOOKBACK_DAYS")
	}
	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
