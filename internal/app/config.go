package app

import (
	"time"

	"github.com/yungbote/proposalpilot-backend/internal/platform/envutil"
	"github.com/yungbote/proposalpilot-backend/internal/rfp/generate"
	"github.com/yungbote/proposalpilot-backend/internal/rfp/retrieve"
)

type Config struct {
	Port        string
	LogMode     string
	Environment string
	Version     string

	JWTSecretKey   string
	AllowedOrigins []string

	RedisAddr    string
	RedisChannel string

	RetrieveTopK           int
	GenerateMaxTokens      int
	GenerateTemperature    float64
	GenerateTopP           float64
	BulkGenerateWorkers    int
	IngestBatchConcurrency int

	ShutdownTimeout time.Duration
}

func LoadConfig() Config {
	return Config{
		Port:        envutil.String("PORT", "8080"),
		LogMode:     envutil.String("LOG_MODE", "development"),
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", "dev"),

		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", ""),
		AllowedOrigins: envutil.List("CORS_ALLOWED_ORIGINS"),

		RedisAddr:    envutil.String("REDIS_ADDR", ""),
		RedisChannel: envutil.String("REDIS_CHANNEL", ""),

		RetrieveTopK:           envutil.Int("RETRIEVE_TOP_K", retrieve.DefaultTopK),
		GenerateMaxTokens:      envutil.Int("GENERATE_MAX_TOKENS", generate.DefaultMaxTokens),
		GenerateTemperature:    envutil.Float("GENERATE_TEMPERATURE", generate.DefaultTemperature),
		GenerateTopP:           envutil.Float("GENERATE_TOP_P", generate.DefaultTopP),
		BulkGenerateWorkers:    envutil.Int("BULK_GENERATE_WORKERS", 1),
		IngestBatchConcurrency: envutil.Int("INGEST_BATCH_CONCURRENCY", 4),

		ShutdownTimeout: envutil.Duration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
	}
}

func (c Config) generateConfig() generate.Config {
	return generate.Config{
		MaxTokens:   c.GenerateMaxTokens,
		Temperature: c.GenerateTemperature,
		TopP:        c.GenerateTopP,
	}
}
