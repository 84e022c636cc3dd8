package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode      string // Set via flag, not env
	MockServices bool

	// MongoDB
	MongoURI          string
	MongoDbName       string
	MongoTransactions bool // requires a replica set

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JwtSecret string
	JwtTTL    time.Duration

	// Server
	ApiPort        string
	ServiceApiPort string

	// Logging
	LogLevel  string
	LogFormat string

	// Recommender
	RecommenderEngineURL       string
	RecommenderEventURL        string
	RecommenderAccessKey       string
	RecommenderSimilarKey      string
	RecommenderTimeout         time.Duration
	RecommenderQueryNum        int
	RecommenderMinScore        float64
	RecommenderTrainCmd        string
	RecommendationCacheTTL     time.Duration
	RecommenderBreakerRequests int

	// Push
	PushGatewayURL string
	PushGatewayKey string
	PushLogFile    string

	// Matching
	ConflictRadiusKm       float64
	DefaultDistanceRangeKm float64

	// Rate Limiting
	RateLimitBucketSize int
	RateLimitRefillRate int // tokens per second
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	cfg := &Config{
		RunMode: runMode,
	}

	var err error

	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists || value == "" {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	getSeconds := func(key, defaultValue string) (time.Duration, error) {
		n, err := strconv.ParseInt(getEnv(key, defaultValue), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return time.Duration(n) * time.Second, nil
	}

	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "swapp")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.ApiPort = getEnv("API_PORT", "8080")
	cfg.ServiceApiPort = getEnv("SERVICE_API_PORT", "12345")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "json")
	cfg.RecommenderEngineURL = getEnv("RECOMMENDER_ENGINE_URL", "http://localhost:8000")
	cfg.RecommenderEventURL = getEnv("RECOMMENDER_EVENT_URL", "http://localhost:7070")
	cfg.RecommenderAccessKey = getEnv("RECOMMENDER_ACCESS_KEY", "")
	cfg.RecommenderSimilarKey = getEnv("RECOMMENDER_SIMILAR_ACCESS_KEY", "")
	cfg.RecommenderTrainCmd = getEnv("RECOMMENDER_TRAIN_CMD", "")
	cfg.PushGatewayURL = getEnv("PUSH_GATEWAY_URL", "")
	cfg.PushGatewayKey = getEnv("PUSH_GATEWAY_KEY", "")
	cfg.PushLogFile = getEnv("PUSH_LOG_FILE", "")

	if cfg.MockServices, err = strconv.ParseBool(getEnv("MOCK_SERVICES", "false")); err != nil {
		return nil, fmt.Errorf("invalid MOCK_SERVICES: %w", err)
	}
	if cfg.MongoTransactions, err = strconv.ParseBool(getEnv("MONGO_TRANSACTIONS", "false")); err != nil {
		return nil, fmt.Errorf("invalid MONGO_TRANSACTIONS: %w", err)
	}

	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	if cfg.JwtTTL, err = getSeconds("JWT_TTL_SECONDS", "3600"); err != nil {
		return nil, err
	}
	if cfg.RecommendationCacheTTL, err = getSeconds("RECOMMENDATION_CACHE_TTL_SECONDS", "60"); err != nil {
		return nil, err
	}

	timeoutMs, err := strconv.ParseInt(getEnv("RECOMMENDER_TIMEOUT_MS", "2000"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RECOMMENDER_TIMEOUT_MS: %w", err)
	}
	cfg.RecommenderTimeout = time.Duration(timeoutMs) * time.Millisecond

	cfg.RecommenderQueryNum, err = strconv.Atoi(getEnv("RECOMMENDER_QUERY_NUM", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECOMMENDER_QUERY_NUM: %w", err)
	}
	cfg.RecommenderMinScore, err = strconv.ParseFloat(getEnv("RECOMMENDER_MIN_SCORE", "3.5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RECOMMENDER_MIN_SCORE: %w", err)
	}
	cfg.RecommenderBreakerRequests, err = strconv.Atoi(getEnv("RECOMMENDER_BREAKER_MIN_REQUESTS", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECOMMENDER_BREAKER_MIN_REQUESTS: %w", err)
	}

	cfg.ConflictRadiusKm, err = strconv.ParseFloat(getEnv("CONFLICT_RADIUS_KM", "50"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid CONFLICT_RADIUS_KM: %w", err)
	}
	cfg.DefaultDistanceRangeKm, err = strconv.ParseFloat(getEnv("DEFAULT_DISTANCE_RANGE_KM", "100"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_DISTANCE_RANGE_KM: %w", err)
	}

	cfg.RateLimitBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_BUCKET_SIZE", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_REFILL_RATE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REFILL_RATE: %w", err)
	}

	return cfg, nil
}
