package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerConfig   ServerConfig   `json:"server"`
	AuthConfig     AuthConfig     `json:"auth"`
	DatabaseConfig DatabaseConfig `json:"database"`
	RedisConfig    RedisConfig    `json:"redis"`
	MarketConfig   MarketConfig   `json:"market"`
	DexConfig      DexConfig      `json:"dex"`
	PollerConfig   PollerConfig   `json:"poller"`
	VaultConfig    VaultConfig    `json:"vault"`
	LoggingConfig  LoggingConfig  `json:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int     `json:"port"`
	Host            string  `json:"host"`
	AllowedOrigins  string  `json:"allowed_origins"`    // CORS allowed origins
	ReadTimeout     int     `json:"read_timeout"`       // Seconds
	WriteTimeout    int     `json:"write_timeout"`      // Seconds
	ShutdownTimeout int     `json:"shutdown_timeout"`   // Seconds
	RateLimitPerSec float64 `json:"rate_limit_per_sec"` // Per-client request rate
	RateLimitBurst  int     `json:"rate_limit_burst"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	Enabled             bool          `json:"enabled"`
	JWTSecret           string        `json:"jwt_secret"`
	AccessTokenDuration time.Duration `json:"access_token_duration"`
	MinPasswordLength   int           `json:"min_password_length"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL               string `json:"url"`
	MaxConns          int    `json:"max_conns"`
	SnapshotRetention int    `json:"snapshot_retention"` // Snapshots kept per pool
}

// RedisConfig holds Redis configuration for the analysis cache
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// MarketConfig holds OHLCV data source configuration
type MarketConfig struct {
	BaseURL          string        `json:"base_url"`
	APIKey           string        `json:"api_key"`
	Timeout          time.Duration `json:"timeout"`
	RequestsPerSec   float64       `json:"requests_per_sec"` // Upstream rate limit
	Burst            int           `json:"burst"`
	MaxRetries       int           `json:"max_retries"`
	DefaultNetwork   string        `json:"default_network"`
	DefaultTimeframe string        `json:"default_timeframe"` // e.g. "minute", "hour"
	CandleLimit      int           `json:"candle_limit"`      // Candles per fetch
}

// DexConfig holds swap-quote aggregator configuration
type DexConfig struct {
	Enabled     bool          `json:"enabled"`
	QuoteURL    string        `json:"quote_url"`
	Timeout     time.Duration `json:"timeout"`
	SlippageBps int           `json:"slippage_bps"`
}

// PollerConfig holds the background analysis poller configuration
type PollerConfig struct {
	Enabled     bool          `json:"enabled"`
	Interval    time.Duration `json:"interval"`
	WorkerCount int           `json:"worker_count"`
	CacheTTL    time.Duration `json:"cache_ttl"`
}

// VaultConfig holds HashiCorp Vault configuration
type VaultConfig struct {
	Enabled    bool   `json:"enabled"`
	Address    string `json:"address"`
	Token      string `json:"token"`
	MountPath  string `json:"mount_path"`  // KV secrets engine mount path
	SecretPath string `json:"secret_path"` // Path for market data API keys
}

type LoggingConfig struct {
	Level      string `json:"level"`       // debug, info, warn, error
	Output     string `json:"output"`      // stdout, stderr, or file path
	JSONFormat bool   `json:"json_format"` // Output as JSON
}

func Load() (*Config, error) {
	// Best effort: a missing .env file is not an error
	_ = godotenv.Load()

	// First try to load base config from file
	cfg, err := loadFromFile("config.json")
	if err != nil {
		// If no config file, start with empty config
		cfg = &Config{}
	}

	// Apply environment variable overrides (these take precedence)
	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Note: the market data API key may also come from Vault; the env value is
// only the fallback when Vault is disabled.
func applyEnvOverrides(cfg *Config) {
	// Server config
	cfg.ServerConfig.Port = getEnvIntOrDefault("WEB_PORT", 8080)
	cfg.ServerConfig.Host = getEnvOrDefault("WEB_HOST", "0.0.0.0")
	cfg.ServerConfig.AllowedOrigins = getEnvOrDefault("SERVER_ALLOWED_ORIGINS", "*")
	cfg.ServerConfig.ReadTimeout = getEnvIntOrDefault("SERVER_READ_TIMEOUT", 30)
	cfg.ServerConfig.WriteTimeout = getEnvIntOrDefault("SERVER_WRITE_TIMEOUT", 30)
	cfg.ServerConfig.ShutdownTimeout = getEnvIntOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10)
	cfg.ServerConfig.RateLimitPerSec = getEnvFloatOrDefault("SERVER_RATE_LIMIT_PER_SEC", 10)
	cfg.ServerConfig.RateLimitBurst = getEnvIntOrDefault("SERVER_RATE_LIMIT_BURST", 20)

	// Auth config - ALWAYS apply from environment
	cfg.AuthConfig.Enabled = getEnvOrDefault("AUTH_ENABLED", "true") == "true"
	cfg.AuthConfig.JWTSecret = getEnvOrDefault("AUTH_JWT_SECRET", cfg.AuthConfig.JWTSecret)
	cfg.AuthConfig.AccessTokenDuration = getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_DURATION", 24*time.Hour)
	cfg.AuthConfig.MinPasswordLength = getEnvIntOrDefault("AUTH_MIN_PASSWORD_LENGTH", 8)

	// Database config
	cfg.DatabaseConfig.URL = getEnvOrDefault("DATABASE_URL", cfg.DatabaseConfig.URL)
	cfg.DatabaseConfig.MaxConns = getEnvIntOrDefault("DATABASE_MAX_CONNS", 10)
	cfg.DatabaseConfig.SnapshotRetention = getEnvIntOrDefault("SNAPSHOT_RETENTION", 500)

	// Redis config
	cfg.RedisConfig.Enabled = getEnvOrDefault("REDIS_ENABLED", "false") == "true"
	cfg.RedisConfig.Address = getEnvOrDefault("REDIS_ADDRESS", "localhost:6379")
	cfg.RedisConfig.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.RedisConfig.Password)
	cfg.RedisConfig.DB = getEnvIntOrDefault("REDIS_DB", 0)
	cfg.RedisConfig.PoolSize = getEnvIntOrDefault("REDIS_POOL_SIZE", 10)

	// Market data config
	cfg.MarketConfig.BaseURL = getEnvOrDefault("MARKET_BASE_URL", cfg.MarketConfig.BaseURL)
	if cfg.MarketConfig.BaseURL == "" {
		cfg.MarketConfig.BaseURL = "https://api.geckoterminal.com/api/v2"
	}
	cfg.MarketConfig.APIKey = getEnvOrDefault("MARKET_API_KEY", cfg.MarketConfig.APIKey)
	cfg.MarketConfig.Timeout = getEnvDurationOrDefault("MARKET_TIMEOUT", 15*time.Second)
	cfg.MarketConfig.RequestsPerSec = getEnvFloatOrDefault("MARKET_REQUESTS_PER_SEC", 0.5)
	cfg.MarketConfig.Burst = getEnvIntOrDefault("MARKET_BURST", 1)
	cfg.MarketConfig.MaxRetries = getEnvIntOrDefault("MARKET_MAX_RETRIES", 3)
	cfg.MarketConfig.DefaultNetwork = getEnvOrDefault("MARKET_DEFAULT_NETWORK", "solana")
	cfg.MarketConfig.DefaultTimeframe = getEnvOrDefault("MARKET_DEFAULT_TIMEFRAME", "minute")
	cfg.MarketConfig.CandleLimit = getEnvIntOrDefault("MARKET_CANDLE_LIMIT", 100)

	// Dex quote config
	cfg.DexConfig.Enabled = getEnvOrDefault("DEX_ENABLED", "true") == "true"
	cfg.DexConfig.QuoteURL = getEnvOrDefault("DEX_QUOTE_URL", "https://quote-api.jup.ag/v6/quote")
	cfg.DexConfig.Timeout = getEnvDurationOrDefault("DEX_TIMEOUT", 10*time.Second)
	cfg.DexConfig.SlippageBps = getEnvIntOrDefault("DEX_SLIPPAGE_BPS", 100)

	// Poller config
	cfg.PollerConfig.Enabled = getEnvOrDefault("POLLER_ENABLED", "true") == "true"
	cfg.PollerConfig.Interval = getEnvDurationOrDefault("POLLER_INTERVAL", 60*time.Second)
	cfg.PollerConfig.WorkerCount = getEnvIntOrDefault("POLLER_WORKER_COUNT", 4)
	cfg.PollerConfig.CacheTTL = getEnvDurationOrDefault("POLLER_CACHE_TTL", 90*time.Second)

	// Vault config
	cfg.VaultConfig.Enabled = getEnvOrDefault("VAULT_ENABLED", "false") == "true"
	cfg.VaultConfig.Address = getEnvOrDefault("VAULT_ADDR", "http://localhost:8200")
	cfg.VaultConfig.Token = getEnvOrDefault("VAULT_TOKEN", cfg.VaultConfig.Token)
	cfg.VaultConfig.MountPath = getEnvOrDefault("VAULT_MOUNT_PATH", "secret")
	cfg.VaultConfig.SecretPath = getEnvOrDefault("VAULT_SECRET_PATH", "scalp-assistant/market")

	// Logging config
	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", "info")
	cfg.LoggingConfig.Output = getEnvOrDefault("LOG_OUTPUT", "stdout")
	cfg.LoggingConfig.JSONFormat = getEnvOrDefault("LOG_JSON", "true") == "true"
}

func loadFromFile(filename string) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return &config, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GenerateSampleConfig creates a sample configuration file
func GenerateSampleConfig(filename string) error {
	config := Config{
		ServerConfig: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			AllowedOrigins:  "*",
			ReadTimeout:     30,
			WriteTimeout:    30,
			ShutdownTimeout: 10,
			RateLimitPerSec: 10,
			RateLimitBurst:  20,
		},
		AuthConfig: AuthConfig{
			Enabled:             true,
			JWTSecret:           "change_me",
			AccessTokenDuration: 24 * time.Hour,
			MinPasswordLength:   8,
		},
		DatabaseConfig: DatabaseConfig{
			URL:               "postgres://localhost:5432/scalp_assistant",
			MaxConns:          10,
			SnapshotRetention: 500,
		},
		RedisConfig: RedisConfig{
			Enabled:  false,
			Address:  "localhost:6379",
			PoolSize: 10,
		},
		MarketConfig: MarketConfig{
			BaseURL:          "https://api.geckoterminal.com/api/v2",
			Timeout:          15 * time.Second,
			RequestsPerSec:   0.5,
			Burst:            1,
			MaxRetries:       3,
			DefaultNetwork:   "solana",
			DefaultTimeframe: "minute",
			CandleLimit:      100,
		},
		PollerConfig: PollerConfig{
			Enabled:     true,
			Interval:    60 * time.Second,
			WorkerCount: 4,
			CacheTTL:    90 * time.Second,
		},
		LoggingConfig: LoggingConfig{
			Level:      "info",
			Output:     "stdout",
			JSONFormat: true,
		},
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filename, data, 0644)
}
