package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv                string
	DBPath                string
	DBDriver              string
	RedisAddr             string
	GRPCPort              int
	GRPCReflectionEnabled bool
	HTTPPort              int
	VSOP87Path            string
	CacheTTL              time.Duration

	Geocoder GeocoderConfig
}

// GeocoderConfig configures the network lookup tier of the geocoder.
type GeocoderConfig struct {
	Enabled     bool
	URL         string
	UserAgent   string
	MinInterval time.Duration
	Timeout     time.Duration
}

// Load reads an optional .env file, then the environment. Variables already
// set in the environment win over the file.
func Load(envFiles ...string) *Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	_ = godotenv.Load(envFiles...)
	return LoadFromEnv()
}

// LoadFromEnv loads configuration from environment variables.
// Unparseable values fall back to their defaults.
func LoadFromEnv() *Config {
	return &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		DBPath:                getEnv("DB_PATH", "./data/astromatch.db"),
		DBDriver:              getEnv("DB_DRIVER", "sqlite3"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		GRPCPort:              getInt("GRPC_PORT", 50051),
		GRPCReflectionEnabled: getBool("GRPC_REFLECTION_ENABLED", false),
		HTTPPort:              getInt("HTTP_PORT", 8080),
		VSOP87Path:            os.Getenv("VSOP87_PATH"),
		CacheTTL:              time.Duration(getInt("CACHE_TTL_SECONDS", 86400)) * time.Second,
		Geocoder: GeocoderConfig{
			Enabled:     getBool("GEOCODER_ENABLED", true),
			URL:         getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:   getEnv("GEOCODER_USER_AGENT", "astromatch/1.0"),
			MinInterval: time.Duration(getInt("GEOCODER_MIN_INTERVAL_MS", 1000)) * time.Millisecond,
			Timeout:     time.Duration(getInt("GEOCODER_TIMEOUT_SECONDS", 10)) * time.Second,
		},
	}
}

// CacheEnabled reports whether a Redis address was configured.
func (c *Config) CacheEnabled() bool {
	return strings.TrimSpace(c.RedisAddr) != ""
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return b
}
