// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"token-radar/internal/ingestion"
	"token-radar/internal/metadata"
	"token-radar/internal/publish"
	"token-radar/internal/watchlist"
)

// Config holds all app configuration.
type Config struct {
	// Server
	HTTPAddr string

	// Storage
	PostgresDSN   string
	ClickHouseDSN string
	UseMemory     bool

	// Redis metadata cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Kafka analysis requests
	KafkaBrokers       string // comma separated
	KafkaAnalysisTopic string

	// Upstreams
	SolanaRPCEndpoint string
	SolanaWSEndpoint  string
	ScorerEndpoint    string
	ScorerAPIKey      string

	// Auth
	WebhookSecret     string
	InternalAPISecret string

	// Ingestion
	GraduationProgramID string
	UpstreamTimeout     time.Duration
	EnrichConcurrency   int
	MetadataCacheTTL    time.Duration
	ListenerLogMarker   string

	// Watchlist
	ScanCap      int
	ScanInterval time.Duration

	Debug bool
}

// Load reads .env files (if present) and then the environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var errs []error
	cfg := &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		PostgresDSN:   getEnv("POSTGRES_DSN", ""),
		ClickHouseDSN: getEnv("CLICKHOUSE_DSN", ""),
		UseMemory:     getEnvAsBool("USE_MEMORY", false, &errs),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0, &errs),

		KafkaBrokers:       getEnv("KAFKA_BROKERS", ""),
		KafkaAnalysisTopic: getEnv("KAFKA_ANALYSIS_TOPIC", publish.DefaultAnalysisTopic),

		SolanaRPCEndpoint: getEnv("SOLANA_RPC_ENDPOINT", ""),
		SolanaWSEndpoint:  getEnv("SOLANA_WS_ENDPOINT", ""),
		ScorerEndpoint:    getEnv("SCORER_ENDPOINT", ""),
		ScorerAPIKey:      getEnv("SCORER_API_KEY", ""),

		WebhookSecret:     getEnv("WEBHOOK_SECRET", ""),
		InternalAPISecret: getEnv("INTERNAL_API_SECRET", ""),

		GraduationProgramID: getEnv("GRADUATION_PROGRAM_ID", ingestion.DefaultGraduationProgramID),
		UpstreamTimeout:     getEnvAsDuration("UPSTREAM_TIMEOUT", ingestion.DefaultUpstreamTimeout, &errs),
		EnrichConcurrency:   getEnvAsInt("ENRICH_CONCURRENCY", ingestion.DefaultConcurrency, &errs),
		MetadataCacheTTL:    getEnvAsDuration("METADATA_CACHE_TTL", metadata.DefaultCacheTTL, &errs),
		ListenerLogMarker:   getEnv("LISTENER_LOG_MARKER", ""),

		ScanCap:      getEnvAsInt("SCAN_CAP", watchlist.DefaultScanCap, &errs),
		ScanInterval: getEnvAsDuration("SCAN_INTERVAL", 0, &errs),

		Debug: getEnvAsBool("DEBUG", false, &errs),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the settings required by the chosen mode are present.
func (c *Config) Validate() error {
	var errs []error
	if !c.UseMemory && c.PostgresDSN == "" {
		errs = append(errs, errors.New("POSTGRES_DSN is required (or use --use-memory)"))
	}
	if c.UpstreamTimeout <= 0 {
		errs = append(errs, errors.New("UPSTREAM_TIMEOUT must be positive"))
	}
	if c.ScanCap <= 0 {
		errs = append(errs, errors.New("SCAN_CAP must be positive"))
	}
	if c.UpstreamTimeout > ingestion.DefaultUpstreamTimeout {
		errs = append(errs, fmt.Errorf("UPSTREAM_TIMEOUT must not exceed %s", ingestion.DefaultUpstreamTimeout))
	}
	return errors.Join(errs...)
}

// KafkaEnabled reports whether analysis requests go to Kafka.
func (c *Config) KafkaEnabled() bool {
	return strings.TrimSpace(c.KafkaBrokers) != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int, errs *[]error) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultVal
	}
	return value
}

func getEnvAsBool(key string, defaultVal bool, errs *[]error) bool {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultVal
	}
	return val
}

func getEnvAsDuration(key string, defaultVal time.Duration, errs *[]error) time.Duration {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultVal
	}
	val, err := time.ParseDuration(valStr)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultVal
	}
	return val
}
