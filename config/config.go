package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerConfig   ServerConfig   `json:"server"`
	AuthConfig     AuthConfig     `json:"auth"`
	DatabaseConfig DatabaseConfig `json:"database"`
	RedisConfig    RedisConfig    `json:"redis"`
	VaultConfig    VaultConfig    `json:"vault"`
	LoggingConfig  LoggingConfig  `json:"logging"`
	AdvisorConfig  AdvisorConfig  `json:"advisor"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int    `json:"port"`
	Host            string `json:"host"`
	AllowedOrigins  string `json:"allowed_origins"`  // CORS allowed origins
	ReadTimeout     int    `json:"read_timeout"`     // Seconds
	WriteTimeout    int    `json:"write_timeout"`    // Seconds
	ShutdownTimeout int    `json:"shutdown_timeout"` // Seconds
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	Enabled             bool          `json:"enabled"`
	JWTSecret           string        `json:"jwt_secret"`
	AccessTokenDuration time.Duration `json:"access_token_duration"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"ssl_mode"`
}

// RedisConfig holds Redis configuration for analysis caching
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
	CacheTTL int    `json:"cache_ttl"` // Seconds
}

// VaultConfig holds HashiCorp Vault configuration
type VaultConfig struct {
	Enabled    bool   `json:"enabled"`
	Address    string `json:"address"`
	Token      string `json:"token"`
	MountPath  string `json:"mount_path"`  // KV secrets engine mount path
	SecretPath string `json:"secret_path"` // Path holding the database password
	TLSEnabled bool   `json:"tls_enabled"`
	CACert     string `json:"ca_cert"`
}

type LoggingConfig struct {
	Level      string `json:"level"`       // debug, info, warn, error
	Output     string `json:"output"`      // stdout, stderr, or file path
	JSONFormat bool   `json:"json_format"` // Output as JSON
}

// AdvisorConfig holds analysis pipeline configuration
type AdvisorConfig struct {
	// Regime classification
	MinBars          int     `json:"min_bars"`
	TrendingADX      float64 `json:"trending_adx"`
	VolatileRatio    float64 `json:"volatile_ratio"`
	HighVolatility   float64 `json:"high_volatility"`
	MediumVolatility float64 `json:"medium_volatility"`

	// Component weights, normalized to sum to 1
	TrendWeight      float64 `json:"trend_weight"`
	MomentumWeight   float64 `json:"momentum_weight"`
	VolatilityWeight float64 `json:"volatility_weight"`
	VolumeWeight     float64 `json:"volume_weight"`
	PatternWeight    float64 `json:"pattern_weight"`
	LevelWeight      float64 `json:"level_weight"`

	// Position sizing limits, as percent of capital
	BaseRiskPercent     float64 `json:"base_risk_percent"`
	MaxRiskPercent      float64 `json:"max_risk_percent"`
	MinRiskPercent      float64 `json:"min_risk_percent"`
	MaxPositionPercent  float64 `json:"max_position_percent"`
	VolatileAssetMaxPct float64 `json:"volatile_asset_max_pct"`
	FallbackRiskPercent float64 `json:"fallback_risk_percent"`
	PortfolioCeilingPct float64 `json:"portfolio_ceiling_pct"`

	StoreTimeout time.Duration `json:"store_timeout"` // Budget for history lookups during validation
}

func Load() (*Config, error) {
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

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	// Server config
	cfg.ServerConfig.Port = getEnvIntOrDefault("WEB_PORT", 8080)
	cfg.ServerConfig.Host = getEnvOrDefault("WEB_HOST", "0.0.0.0")
	cfg.ServerConfig.AllowedOrigins = getEnvOrDefault("SERVER_ALLOWED_ORIGINS", "*")
	cfg.ServerConfig.ReadTimeout = getEnvIntOrDefault("SERVER_READ_TIMEOUT", 30)
	cfg.ServerConfig.WriteTimeout = getEnvIntOrDefault("SERVER_WRITE_TIMEOUT", 30)
	cfg.ServerConfig.ShutdownTimeout = getEnvIntOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10)

	// Auth config
	cfg.AuthConfig.Enabled = getEnvOrDefault("AUTH_ENABLED", "false") == "true"
	cfg.AuthConfig.JWTSecret = getEnvOrDefault("AUTH_JWT_SECRET", cfg.AuthConfig.JWTSecret)
	cfg.AuthConfig.AccessTokenDuration = getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_DURATION", 15*time.Minute)

	// Database config
	cfg.DatabaseConfig.Host = getEnvOrDefault("DB_HOST", defaultString(cfg.DatabaseConfig.Host, "localhost"))
	cfg.DatabaseConfig.Port = getEnvIntOrDefault("DB_PORT", defaultInt(cfg.DatabaseConfig.Port, 5432))
	cfg.DatabaseConfig.User = getEnvOrDefault("DB_USER", defaultString(cfg.DatabaseConfig.User, "postgres"))
	cfg.DatabaseConfig.Password = getEnvOrDefault("DB_PASSWORD", cfg.DatabaseConfig.Password)
	cfg.DatabaseConfig.Database = getEnvOrDefault("DB_NAME", defaultString(cfg.DatabaseConfig.Database, "trade_advisor"))
	cfg.DatabaseConfig.SSLMode = getEnvOrDefault("DB_SSLMODE", defaultString(cfg.DatabaseConfig.SSLMode, "disable"))

	// Redis config
	cfg.RedisConfig.Enabled = getEnvOrDefault("REDIS_ENABLED", "false") == "true"
	cfg.RedisConfig.Address = getEnvOrDefault("REDIS_ADDRESS", defaultString(cfg.RedisConfig.Address, "localhost:6379"))
	cfg.RedisConfig.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.RedisConfig.Password)
	cfg.RedisConfig.DB = getEnvIntOrDefault("REDIS_DB", cfg.RedisConfig.DB)
	cfg.RedisConfig.PoolSize = getEnvIntOrDefault("REDIS_POOL_SIZE", defaultInt(cfg.RedisConfig.PoolSize, 10))
	cfg.RedisConfig.CacheTTL = getEnvIntOrDefault("REDIS_CACHE_TTL", defaultInt(cfg.RedisConfig.CacheTTL, 60))

	// Vault config
	cfg.VaultConfig.Enabled = getEnvOrDefault("VAULT_ENABLED", "false") == "true"
	cfg.VaultConfig.Address = getEnvOrDefault("VAULT_ADDR", defaultString(cfg.VaultConfig.Address, "http://localhost:8200"))
	cfg.VaultConfig.Token = getEnvOrDefault("VAULT_TOKEN", cfg.VaultConfig.Token)
	cfg.VaultConfig.MountPath = getEnvOrDefault("VAULT_MOUNT_PATH", defaultString(cfg.VaultConfig.MountPath, "secret"))
	cfg.VaultConfig.SecretPath = getEnvOrDefault("VAULT_SECRET_PATH", defaultString(cfg.VaultConfig.SecretPath, "trade-advisor/database"))
	cfg.VaultConfig.TLSEnabled = getEnvOrDefault("VAULT_TLS_ENABLED", "false") == "true"

	// Logging config
	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", defaultString(cfg.LoggingConfig.Level, "info"))
	cfg.LoggingConfig.Output = getEnvOrDefault("LOG_OUTPUT", defaultString(cfg.LoggingConfig.Output, "stdout"))
	cfg.LoggingConfig.JSONFormat = getEnvOrDefault("LOG_JSON", "true") == "true"

	// Advisor config
	cfg.AdvisorConfig.MinBars = getEnvIntOrDefault("ADVISOR_MIN_BARS", defaultInt(cfg.AdvisorConfig.MinBars, 20))
	cfg.AdvisorConfig.TrendingADX = getEnvFloatOrDefault("ADVISOR_TRENDING_ADX", defaultFloat(cfg.AdvisorConfig.TrendingADX, 25.0))
	cfg.AdvisorConfig.VolatileRatio = getEnvFloatOrDefault("ADVISOR_VOLATILE_RATIO", defaultFloat(cfg.AdvisorConfig.VolatileRatio, 1.5))
	cfg.AdvisorConfig.HighVolatility = getEnvFloatOrDefault("ADVISOR_HIGH_VOLATILITY", defaultFloat(cfg.AdvisorConfig.HighVolatility, 0.30))
	cfg.AdvisorConfig.MediumVolatility = getEnvFloatOrDefault("ADVISOR_MEDIUM_VOLATILITY", defaultFloat(cfg.AdvisorConfig.MediumVolatility, 0.15))

	cfg.AdvisorConfig.TrendWeight = getEnvFloatOrDefault("ADVISOR_TREND_WEIGHT", defaultFloat(cfg.AdvisorConfig.TrendWeight, 0.30))
	cfg.AdvisorConfig.MomentumWeight = getEnvFloatOrDefault("ADVISOR_MOMENTUM_WEIGHT", defaultFloat(cfg.AdvisorConfig.MomentumWeight, 0.20))
	cfg.AdvisorConfig.VolatilityWeight = getEnvFloatOrDefault("ADVISOR_VOLATILITY_WEIGHT", defaultFloat(cfg.AdvisorConfig.VolatilityWeight, 0.10))
	cfg.AdvisorConfig.VolumeWeight = getEnvFloatOrDefault("ADVISOR_VOLUME_WEIGHT", defaultFloat(cfg.AdvisorConfig.VolumeWeight, 0.15))
	cfg.AdvisorConfig.PatternWeight = getEnvFloatOrDefault("ADVISOR_PATTERN_WEIGHT", defaultFloat(cfg.AdvisorConfig.PatternWeight, 0.10))
	cfg.AdvisorConfig.LevelWeight = getEnvFloatOrDefault("ADVISOR_LEVEL_WEIGHT", defaultFloat(cfg.AdvisorConfig.LevelWeight, 0.15))

	cfg.AdvisorConfig.BaseRiskPercent = getEnvFloatOrDefault("ADVISOR_BASE_RISK_PERCENT", defaultFloat(cfg.AdvisorConfig.BaseRiskPercent, 1.0))
	cfg.AdvisorConfig.MaxRiskPercent = getEnvFloatOrDefault("ADVISOR_MAX_RISK_PERCENT", defaultFloat(cfg.AdvisorConfig.MaxRiskPercent, 1.5))
	cfg.AdvisorConfig.MinRiskPercent = getEnvFloatOrDefault("ADVISOR_MIN_RISK_PERCENT", defaultFloat(cfg.AdvisorConfig.MinRiskPercent, 0.5))
	cfg.AdvisorConfig.MaxPositionPercent = getEnvFloatOrDefault("ADVISOR_MAX_POSITION_PERCENT", defaultFloat(cfg.AdvisorConfig.MaxPositionPercent, 10.0))
	cfg.AdvisorConfig.VolatileAssetMaxPct = getEnvFloatOrDefault("ADVISOR_VOLATILE_ASSET_MAX_PCT", defaultFloat(cfg.AdvisorConfig.VolatileAssetMaxPct, 5.0))
	cfg.AdvisorConfig.FallbackRiskPercent = getEnvFloatOrDefault("ADVISOR_FALLBACK_RISK_PERCENT", defaultFloat(cfg.AdvisorConfig.FallbackRiskPercent, 2.0))
	cfg.AdvisorConfig.PortfolioCeilingPct = getEnvFloatOrDefault("ADVISOR_PORTFOLIO_CEILING_PCT", defaultFloat(cfg.AdvisorConfig.PortfolioCeilingPct, 6.0))

	cfg.AdvisorConfig.StoreTimeout = getEnvDurationOrDefault("ADVISOR_STORE_TIMEOUT", defaultDuration(cfg.AdvisorConfig.StoreTimeout, 500*time.Millisecond))
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

func defaultString(current, fallback string) string {
	if current != "" {
		return current
	}
	return fallback
}

func defaultInt(current, fallback int) int {
	if current != 0 {
		return current
	}
	return fallback
}

func defaultFloat(current, fallback float64) float64 {
	if current != 0 {
		return current
	}
	return fallback
}

func defaultDuration(current, fallback time.Duration) time.Duration {
	if current != 0 {
		return current
	}
	return fallback
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
		},
		AuthConfig: AuthConfig{
			Enabled:             false,
			JWTSecret:           "change_me",
			AccessTokenDuration: 15 * time.Minute,
		},
		DatabaseConfig: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "",
			Database: "trade_advisor",
			SSLMode:  "disable",
		},
		RedisConfig: RedisConfig{
			Enabled:  false,
			Address:  "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60,
		},
		VaultConfig: VaultConfig{
			Enabled:    false,
			Address:    "http://localhost:8200",
			MountPath:  "secret",
			SecretPath: "trade-advisor/database",
		},
		LoggingConfig: LoggingConfig{
			Level:      "info",
			Output:     "stdout",
			JSONFormat: true,
		},
		AdvisorConfig: AdvisorConfig{
			MinBars:             20,
			TrendingADX:         25.0,
			VolatileRatio:       1.5,
			HighVolatility:      0.30,
			MediumVolatility:    0.15,
			TrendWeight:         0.30,
			MomentumWeight:      0.20,
			VolatilityWeight:    0.10,
			VolumeWeight:        0.15,
			PatternWeight:       0.10,
			LevelWeight:         0.15,
			BaseRiskPercent:     1.0,
			MaxRiskPercent:      1.5,
			MinRiskPercent:      0.5,
			MaxPositionPercent:  10.0,
			VolatileAssetMaxPct: 5.0,
			FallbackRiskPercent: 2.0,
			PortfolioCeilingPct: 6.0,
		},
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filename, data, 0644)
}
