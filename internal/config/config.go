package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	Port             string
	Currency         string
	WebhookSecret    string
	WebhookTolerance time.Duration
	CORSOrigin       string
	RedisAddr        string
	KafkaBrokers     string
	KafkaTopic       string
}

func Load() Config {
	cfg := Config{
		Port:             getEnv("PORT", "8080"),
		Currency:         getEnv("CURRENCY", "RWF"),
		WebhookSecret:    os.Getenv("WEBHOOK_SECRET"),
		WebhookTolerance: 300 * time.Second,
		CORSOrigin:       getEnv("CORS_ORIGIN", "http://localhost:3000"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		KafkaBrokers:     os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:       getEnv("KAFKA_TOPIC", "payments.posted"),
	}

	if raw := os.Getenv("WEBHOOK_TOLERANCE_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			cfg.WebhookTolerance = time.Duration(secs) * time.Second
		}
	}

	return cfg
}

func InitDB() *gorm.DB {
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		slog.Error("DB_URL is not set")
		os.Exit(1)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	return db
}

// InitRedis returns nil when REDIS_ADDR is unset; callers fall back to
// in-process rate limiting.
func InitRedis(cfg Config) *redis.Client {
	if cfg.RedisAddr == "" {
		slog.Warn("REDIS_ADDR not set, using in-process rate limiting")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return rdb
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
