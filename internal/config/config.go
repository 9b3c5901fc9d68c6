package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Auth      AuthConfig
	Stats     StatsConfig
	Log       LogConfig
	RateLimit RateLimitConfig
	FormURL   string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Driver        string // postgres or sqlite
	PostgresDSN   string
	SQLitePath    string
	MaxOpenConns  int
	MaxIdleConns  int
	MaxLifetime   time.Duration
	AutoMigrate   bool
	MigrationsDir string
	ConnectTries  int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	Enabled bool
}

type AuthConfig struct {
	JWTSecret    string
	EditorSecret string
	TokenTTL     time.Duration
	OIDCIssuer   string
}

type StatsConfig struct {
	CacheTTL time.Duration
}

type LogConfig struct {
	Dir        string
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// RateLimitConfig bounds form submissions per client address.
type RateLimitConfig struct {
	PerMinute      int
	Burst          int
	TrustedProxies []string
}

// Load reads .env when present and builds the config from the environment.
// It reports whether a .env file was loaded.
func Load() (*Config, bool) {
	loaded := godotenv.Load() == nil
	return FromEnv(), loaded
}

// FromEnv builds the config from the process environment only.
func FromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8084"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0, // SSE streams stay open
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:        strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			PostgresDSN:   getEnv("POSTGRES_DSN", ""),
			SQLitePath:    getEnv("SQLITE_PATH", "file:rental.db?cache=shared"),
			MaxOpenConns:  getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:  getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:   time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
			AutoMigrate:   getEnvBool("AUTO_MIGRATE", true),
			MigrationsDir: getEnv("MIGRATIONS_DIR", "./migrations"),
			ConnectTries:  getEnvInt("DB_CONNECT_RETRIES", 5),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Channel:  getEnv("REDIS_CHANNEL", "rental_logs.changed"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:   getEnv("KAFKA_TOPIC_RENTALS", "site.rental_logs"),
			Enabled: getEnvBool("KAFKA_ENABLED", false),
		},
		Auth: AuthConfig{
			JWTSecret:    getEnv("JWT_SECRET", ""),
			EditorSecret: getEnv("EDITOR_SECRET", ""),
			TokenTTL:     getEnvDuration("ANON_TOKEN_TTL", 30*24*time.Hour),
			OIDCIssuer:   getEnv("OIDC_ISSUER", ""),
		},
		Stats: StatsConfig{
			CacheTTL: time.Duration(getEnvInt("STATS_CACHE_TTL_SECONDS", 30)) * time.Second,
		},
		Log: LogConfig{
			Dir:        getEnv("LOG_DIR", "logs"),
			Level:      getEnv("LOG_LEVEL", "info"),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 7),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 14),
			Compress:   getEnvBool("LOG_COMPRESS", false),
		},
		RateLimit: RateLimitConfig{
			PerMinute:      getEnvInt("SUBMIT_RATE_PER_MINUTE", 30),
			Burst:          getEnvInt("SUBMIT_RATE_BURST", 10),
			TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),
		},
		FormURL: getEnv("FORM_URL", "http://localhost:8084/"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
