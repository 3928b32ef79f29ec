package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration, read from the environment after an
// optional .env file.
type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	DBDriver string // "mysql" or "sqlite"
	DBDSN    string
	MySQL    MySQLConfig

	JWTSecret   string
	JWTTTL      time.Duration
	TokenSecret string
	CORSOrigins []string

	SessionTTL      time.Duration
	RefreshCooldown time.Duration
	PriceEpsilon    float64

	NotifierEnabled  bool
	NotifierInterval time.Duration
	SummaryCooldown  time.Duration

	RedisAddr       string
	KafkaBrokers    []string
	KafkaAlertTopic string

	PublicBaseURL string
	SeedAdmin     SeedAdmin
}

// MySQLConfig captures the connection parameters for a MySQL instance.
type MySQLConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Database string
	Params   string
}

// SeedAdmin is the staff account created on first start when set.
type SeedAdmin struct {
	Email    string
	Password string
}

// Load reads .env (if present) and the environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv populates a Config using defaults that can be overridden via environment variables.
func FromEnv() Config {
	return Config{
		Port:     getEnv("PORT", "8080"),
		GinMode:  getEnv("GIN_MODE", "debug"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBDriver: getEnv("DB_DRIVER", "sqlite"),
		DBDSN:    getEnv("DB_DSN", "cafe.db"),
		MySQL: MySQLConfig{
			User:     getEnv("MYSQL_USER", "cafe"),
			Password: getEnv("MYSQL_PASSWORD", "cafe"),
			Host:     getEnv("MYSQL_HOST", "127.0.0.1"),
			Port:     getEnv("MYSQL_PORT", "3306"),
			Database: getEnv("MYSQL_DATABASE", "cafe"),
			Params:   getEnv("MYSQL_PARAMS", "charset=utf8mb4&parseTime=True&loc=Local"),
		},

		JWTSecret:   getEnv("JWT_SECRET", "dev-jwt-secret"),
		JWTTTL:      getEnvDuration("JWT_TTL", 12*time.Hour),
		TokenSecret: getEnv("TOKEN_SECRET", "dev-token-secret"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://127.0.0.1:5500")),

		SessionTTL:      time.Duration(getEnvInt("SESSION_TTL_MS", 120000)) * time.Millisecond,
		RefreshCooldown: getEnvDuration("REFRESH_COOLDOWN", 3*time.Second),
		PriceEpsilon:    getEnvFloat("PRICE_EPSILON", 0.01),

		NotifierEnabled:  getEnvBool("NOTIFIER_ENABLED", true),
		NotifierInterval: getEnvDuration("NOTIFIER_INTERVAL", 10*time.Second),
		SummaryCooldown:  getEnvDuration("SUMMARY_COOLDOWN", 30*time.Second),

		RedisAddr:       getEnv("REDIS_ADDR", ""),
		KafkaBrokers:    splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaAlertTopic: getEnv("KAFKA_ALERT_TOPIC", "cafe.alerts"),

		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		SeedAdmin: SeedAdmin{
			Email:    getEnv("SEED_ADMIN_EMAIL", ""),
			Password: getEnv("SEED_ADMIN_PASSWORD", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
