package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port            string
	Environment     string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Database
	MongoDBURL  string
	MongoDBName string
	RedisURL    string
	OrderStore  string
	DatabaseURL string

	// JWT
	JWTSecret string

	// LLM (OpenAI-compatible endpoint)
	LLMAPIKey      string
	LLMBaseURL     string
	LLMModel       string
	LLMMaxTokens   int
	LLMTemperature float64
	LLMTimeoutSec  int

	// Circuit breaker around the LLM
	BreakerMaxFailures int
	BreakerOpenSec     int

	// Metrics broadcast
	MetricsDebounce        time.Duration
	MetricsSnapshotTTLMin  int
	MetricsVerboseWarnings bool

	// Personalized suggestions
	SuggestionPoolSize        int
	SuggestionRefreshPoolSize int
	SuggestionRetryPoolSize   int
	SuggestionCandidates      int
	GenderCacheTTLHour        int

	// Chat
	ChatRateLimit     int
	ChatRateWindowSec int

	// Data files
	VocabularyPath     string
	CatalogFixturePath string

	// CORS
	AllowedOrigins []string
}

// Order store backends.
const (
	OrderStoreMongo    = "mongo"
	OrderStorePostgres = "postgres"
)

func Load() (*Config, error) {
	env := getEnv("ENV", "development")

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     env,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		// Database
		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "stylist"),
		RedisURL:    getEnv("REDIS_URL", ""),
		OrderStore:  strings.ToLower(getEnv("ORDER_STORE", OrderStoreMongo)),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", ""),

		// LLM
		LLMAPIKey:      getEnv("LLM_API_KEY", ""),
		LLMBaseURL:     getEnv("LLM_BASE_URL", ""),
		LLMModel:       getEnv("LLM_MODEL", "llama-3.3-70b-versatile"),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 512),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.2),
		LLMTimeoutSec:  getEnvInt("LLM_TIMEOUT_SEC", 8),

		// Breaker
		BreakerMaxFailures: getEnvInt("BREAKER_MAX_FAILURES", 5),
		BreakerOpenSec:     getEnvInt("BREAKER_OPEN_SEC", 30),

		// Metrics
		MetricsDebounce:        time.Duration(getEnvInt("METRICS_DEBOUNCE_MS", 300)) * time.Millisecond,
		MetricsSnapshotTTLMin:  getEnvInt("METRICS_SNAPSHOT_TTL_MIN", 60),
		MetricsVerboseWarnings: getEnvBool("METRICS_VERBOSE_WARNINGS", env == "development"),

		// Suggestions
		SuggestionPoolSize:        getEnvInt("SUGGESTION_POOL_SIZE", 5),
		SuggestionRefreshPoolSize: getEnvInt("SUGGESTION_REFRESH_POOL_SIZE", 10),
		SuggestionRetryPoolSize:   getEnvInt("SUGGESTION_RETRY_POOL_SIZE", 20),
		SuggestionCandidates:      getEnvInt("SUGGESTION_CANDIDATES", 5),
		GenderCacheTTLHour:        getEnvInt("GENDER_CACHE_TTL_HOUR", 24*30),

		// Chat
		ChatRateLimit:     getEnvInt("CHAT_RATE_LIMIT", 30),
		ChatRateWindowSec: getEnvInt("CHAT_RATE_WINDOW_SEC", 60),

		// Data files
		VocabularyPath:     getEnv("VOCABULARY_PATH", ""),
		CatalogFixturePath: getEnv("CATALOG_FIXTURE_PATH", ""),

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("45s") or plain seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// LLMEnabled reports whether an external text-completion service is configured.
func (c *Config) LLMEnabled() bool {
	return c.LLMAPIKey != ""
}
