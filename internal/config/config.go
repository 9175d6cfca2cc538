package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port        string
	Environment string

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	RedisURL string

	KafkaBrokers    string
	OrderEventTopic string

	KhaltiSecretKey string
	KhaltiBaseURL   string
	ReturnURL       string
	WebsiteURL      string

	JWTSecret string

	ShippingFee decimal.Decimal
	CartTTL     time.Duration
	PendingTTL  time.Duration
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "Asia/Kathmandu"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),

		KafkaBrokers:    os.Getenv("KAFKA_BROKERS"),
		OrderEventTopic: getEnv("ORDER_EVENT_TOPIC", "order.events"),

		KhaltiSecretKey: os.Getenv("KHALTI_SECRET_KEY"),
		KhaltiBaseURL:   getEnv("KHALTI_BASE_URL", "https://a.khalti.com/api/v2"),
		ReturnURL:       getEnv("RETURN_URL", "http://localhost:8080/checkout/callback"),
		WebsiteURL:      getEnv("WEBSITE_URL", "http://localhost:8080"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		CartTTL:    getDurationEnv("CART_TTL", time.Hour*24*7),
		PendingTTL: getDurationEnv("PENDING_TXN_TTL", time.Hour),
	}

	fee, err := decimal.NewFromString(getEnv("SHIPPING_FEE", "100.00"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHIPPING_FEE: %w", err)
	}
	cfg.ShippingFee = fee

	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" {
		return nil, fmt.Errorf("database config incomplete")
	}
	if cfg.KhaltiSecretKey == "" {
		return nil, fmt.Errorf("KHALTI_SECRET_KEY is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
