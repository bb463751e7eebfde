package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server      ServerConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Accounts    AccountsConfig
	Recommender RecommenderConfig
	Accountd    AccountdConfig
}

// ServerConfig holds portal HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// RedisConfig holds Redis connection settings (recommendation cache + credit queue).
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// AccountsConfig points at the account directory service.
type AccountsConfig struct {
	BaseURL    string
	TimeoutSec int
}

// RecommenderConfig points at the study recommendation service. An empty URL
// disables recommendations entirely; the portal simply highlights nothing.
type RecommenderConfig struct {
	URL         string
	CacheTTLMin int
}

// AccountdConfig holds settings for the account directory binary itself.
type AccountdConfig struct {
	Port     string
	DataFile string
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		},
		Accounts: AccountsConfig{
			BaseURL:    getEnv("ACCOUNTS_BASE_URL", "http://localhost:3001"),
			TimeoutSec: getEnvInt("ACCOUNTS_TIMEOUT_SEC", 5),
		},
		Recommender: RecommenderConfig{
			URL:         getEnv("RECOMMENDER_URL", ""),
			CacheTTLMin: getEnvInt("RECOMMENDER_CACHE_TTL_MIN", 30),
		},
		Accountd: AccountdConfig{
			Port:     getEnv("ACCOUNTD_PORT", "3001"),
			DataFile: getEnv("ACCOUNTD_DATA_FILE", "data/users.json"),
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
