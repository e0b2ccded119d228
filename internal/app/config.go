package app

import (
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/yungbote/brokerdesk-backend/internal/data/db"
	"github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
	"github.com/yungbote/brokerdesk-backend/internal/observability"
	"github.com/yungbote/brokerdesk-backend/internal/platform/logger"
)

type Config struct {
	Port    string
	LogMode string
	// LogRedact masks secrets and hashes identifiers in log fields.
	LogRedact   bool
	LogHashSalt string

	DBDriver   string
	SQLitePath string
	Postgres   db.PostgresConfig

	RedisAddr       string
	CatalogCacheKey string
	CatalogCacheTTL time.Duration

	TxRetryAttempts int
	TxRetryBackoff  time.Duration

	GroupCreateMaxAttempts        int
	ThreeOrMoreDesignations       []checklist.Designation
	CompletionFallbackConcurrency int

	CORSOrigins    []string
	RequestTimeout time.Duration
	MetricsEnabled bool

	Otel observability.OtelConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_MODE", "development")
	v.SetDefault("LOG_REDACT", true)
	v.SetDefault("LOG_HASH_SALT", "")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("SQLITE_PATH", "brokerdesk.db")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "")
	v.SetDefault("POSTGRES_NAME", "brokerdesk")
	v.SetDefault("POSTGRES_SSLMODE", "disable")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("CATALOG_CACHE_KEY", "brokerdesk:catalog")
	v.SetDefault("CATALOG_CACHE_TTL", "10m")

	v.SetDefault("TX_RETRY_ATTEMPTS", 3)
	v.SetDefault("TX_RETRY_BACKOFF", "20ms")

	v.SetDefault("GROUP_CREATE_MAX_ATTEMPTS", 3)
	v.SetDefault("THREE_PLUS_DESIGNATIONS", "applicant_one,applicant_two")
	v.SetDefault("COMPLETION_FALLBACK_CONCURRENCY", 4)

	v.SetDefault("CORS_ORIGINS", "")
	v.SetDefault("REQUEST_TIMEOUT", "15s")
	v.SetDefault("METRICS_ENABLED", true)

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", "brokerdesk-backend")
	v.SetDefault("OTEL_ENVIRONMENT", "development")
	v.SetDefault("OTEL_SERVICE_VERSION", "dev")
	v.SetDefault("OTEL_SAMPLE_RATIO", 1.0)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_HEADERS", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
}

// LoadConfig reads the environment, with CONFIG_FILE naming an optional YAML file whose
// keys use the same names.
func LoadConfig(log *logger.Logger) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	if path := strings.TrimSpace(v.GetString("CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
		if log != nil {
			log.Info("Loaded config file", "path", path)
		}
	}
	return configFrom(v)
}

func configFrom(v *viper.Viper) (Config, error) {
	cacheTTL, err := durationValue(v.Get("CATALOG_CACHE_TTL"))
	if err != nil {
		return Config{}, err
	}
	reqTimeout, err := durationValue(v.Get("REQUEST_TIMEOUT"))
	if err != nil {
		return Config{}, err
	}
	txBackoff, err := durationValue(v.Get("TX_RETRY_BACKOFF"))
	if err != nil {
		return Config{}, err
	}

	designations := []checklist.Designation{}
	for _, d := range splitList(v.GetString("THREE_PLUS_DESIGNATIONS")) {
		designations = append(designations, checklist.ParseDesignation(d))
	}

	return Config{
		Port:        strings.TrimSpace(v.GetString("PORT")),
		LogMode:     strings.TrimSpace(v.GetString("LOG_MODE")),
		LogRedact:   cast.ToBool(v.Get("LOG_REDACT")),
		LogHashSalt: v.GetString("LOG_HASH_SALT"),

		DBDriver:   strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER"))),
		SQLitePath: strings.TrimSpace(v.GetString("SQLITE_PATH")),
		Postgres: db.PostgresConfig{
			Host:     v.GetString("POSTGRES_HOST"),
			Port:     v.GetString("POSTGRES_PORT"),
			User:     v.GetString("POSTGRES_USER"),
			Password: v.GetString("POSTGRES_PASSWORD"),
			Name:     v.GetString("POSTGRES_NAME"),
			SSLMode:  v.GetString("POSTGRES_SSLMODE"),
		},

		RedisAddr:       strings.TrimSpace(v.GetString("REDIS_ADDR")),
		CatalogCacheKey: v.GetString("CATALOG_CACHE_KEY"),
		CatalogCacheTTL: cacheTTL,

		TxRetryAttempts: cast.ToInt(v.Get("TX_RETRY_ATTEMPTS")),
		TxRetryBackoff:  txBackoff,

		GroupCreateMaxAttempts:        cast.ToInt(v.Get("GROUP_CREATE_MAX_ATTEMPTS")),
		ThreeOrMoreDesignations:       designations,
		CompletionFallbackConcurrency: cast.ToInt(v.Get("COMPLETION_FALLBACK_CONCURRENCY")),

		CORSOrigins:    splitList(v.GetString("CORS_ORIGINS")),
		RequestTimeout: reqTimeout,
		MetricsEnabled: cast.ToBool(v.Get("METRICS_ENABLED")),

		Otel: observability.OtelConfig{
			Enabled:     cast.ToBool(v.Get("OTEL_ENABLED")),
			ServiceName: v.GetString("OTEL_SERVICE_NAME"),
			Environment: v.GetString("OTEL_ENVIRONMENT"),
			Version:     v.GetString("OTEL_SERVICE_VERSION"),
			SampleRatio: cast.ToFloat64(v.Get("OTEL_SAMPLE_RATIO")),
			Endpoint:    strings.TrimSpace(v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT")),
			Headers:     observability.ParseHeaders(v.GetString("OTEL_EXPORTER_OTLP_HEADERS")),
			Insecure:    cast.ToBool(v.Get("OTEL_EXPORTER_OTLP_INSECURE")),
		},
	}, nil
}

// durationValue accepts Go duration strings and treats bare numbers as seconds.
func durationValue(raw any) (time.Duration, error) {
	if n, err := cast.ToInt64E(raw); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return cast.ToDurationE(raw)
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
