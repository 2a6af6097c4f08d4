package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Database    DatabaseConfig
	Search      SearchConfig
	Tailer      TailerConfig
	Retention   RetentionConfig
	GeoIP       GeoIPConfig
	Server      ServerConfig
	Performance PerformanceConfig
	LogLevel    string
}

// DatabaseConfig contains relational-store settings.
type DatabaseConfig struct {
	Path         string
	MaxOpenConns int
	MaxIdleConns int
	ConnMaxLife  time.Duration
}

// SearchConfig contains full-text index settings.
type SearchConfig struct {
	IndexDir string
}

// TailerConfig contains file-tailing scheduler settings (spec.md §4.4).
type TailerConfig struct {
	IntervalSecs int
	NodeID       int
}

// RetentionConfig contains the retention collector's settings (spec.md §4.5).
type RetentionConfig struct {
	RetentionDays   int
	TTLIntervalSecs int
}

// GeoIPConfig contains optional GeoIP enrichment settings.
type GeoIPConfig struct {
	CityDBPath string
	Enabled    bool
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host       string
	Port       int
	Production bool
}

// PerformanceConfig contains tuning knobs shared across components.
type PerformanceConfig struct {
	WorkerPoolSize int
}

// Load reads configuration from a .env file (if present) and the
// environment, applying the defaults spec.md §6 lists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Database: DatabaseConfig{
			Path:         getEnv("DB_PATH", "loglite.db"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 3),
			ConnMaxLife:  getEnvAsDuration("DB_CONN_MAX_LIFE", time.Hour),
		},
		Search: SearchConfig{
			IndexDir: getEnv("INDEX_DIR", "./loglite-index"),
		},
		Tailer: TailerConfig{
			IntervalSecs: getEnvAsInt("TAIL_INTERVAL_SECS", 10),
			NodeID:       getEnvAsInt("NODE_ID", 1),
		},
		Retention: RetentionConfig{
			RetentionDays:   getEnvAsInt("RETENTION_DAYS", 7),
			TTLIntervalSecs: getEnvAsInt("TTL_INTERVAL_SECS", 300),
		},
		GeoIP: GeoIPConfig{
			CityDBPath: getEnv("GEOIP_CITY_DB", "geoip/GeoLite2-City.mmdb"),
			Enabled:    getEnvAsBool("GEOIP_ENABLED", false),
		},
		Server: ServerConfig{
			Host:       getEnv("SERVER_HOST", "0.0.0.0"),
			Port:       getEnvAsInt("SERVER_PORT", 8080),
			Production: getEnvAsBool("SERVER_PRODUCTION", false),
		},
		Performance: PerformanceConfig{
			WorkerPoolSize: getEnvAsInt("WORKER_POOL_SIZE", 4),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
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
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
