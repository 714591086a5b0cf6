package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for our application
type Config struct {
	// Server configuration
	Port           string
	GinMode        string
	APIVersion     string
	APIPrefix      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// HRS reservation platform
	HRS HRSConfig

	// Kafka event publishing
	Kafka KafkaConfig

	// Logging
	LogLevel string
}

// DatabaseConfig holds MySQL configuration for the local quota mirror
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	Params   string
	DSN      string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string

	// TTL values for different operations
	SessionTTL time.Duration
	CacheTTL   time.Duration
}

// HRSConfig holds credentials and tuning for the external reservation platform
type HRSConfig struct {
	BaseURL  string
	Username string
	Password string
	HutID    int

	RequestTimeout   time.Duration
	PageSize         int
	SafetyMarginDays int
	MutationPause    time.Duration

	RetryMaxAttempts int
	RetryBackoff     time.Duration
}

// KafkaConfig holds configuration for quota-change event publishing
type KafkaConfig struct {
	Enabled    bool
	Brokers    []string
	QuotaTopic string
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		// Server configuration
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		APIVersion:     getEnv("API_VERSION", "v1"),
		APIPrefix:      getEnv("API_PREFIX", "/api"),
		ReadTimeout:    getDurationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDurationEnv("WRITE_TIMEOUT", 120*time.Second),
		IdleTimeout:    getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1 MB

		// Database configuration
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			Name:     getEnv("DB_NAME", "hutsync_db"),
			User:     getEnv("DB_USER", "hutsync_user"),
			Password: getEnv("DB_PASSWORD", "hutsync_password"),
			Params:   getEnv("DB_PARAMS", "charset=utf8mb4&parseTime=True&loc=UTC"),
		},

		// Redis configuration
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),

			// TTL configurations with defaults
			SessionTTL: getDurationEnv("REDIS_SESSION_TTL", 1*time.Hour),
			CacheTTL:   getDurationEnv("REDIS_CACHE_TTL", 5*time.Minute),
		},

		// HRS platform configuration
		HRS: HRSConfig{
			BaseURL:          getEnv("HRS_BASE_URL", "https://www.hut-reservation.org"),
			Username:         getEnv("HRS_USERNAME", ""),
			Password:         getEnv("HRS_PASSWORD", ""),
			HutID:            getIntEnv("HRS_HUT_ID", 0),
			RequestTimeout:   getDurationEnv("HRS_REQUEST_TIMEOUT", 60*time.Second),
			PageSize:         getIntEnv("HRS_PAGE_SIZE", 100),
			SafetyMarginDays: getIntEnv("HRS_SAFETY_MARGIN_DAYS", 30),
			MutationPause:    getDurationEnv("HRS_MUTATION_PAUSE", 300*time.Millisecond),
			RetryMaxAttempts: getIntEnv("HRS_RETRY_MAX_ATTEMPTS", 3),
			RetryBackoff:     getDurationEnv("HRS_RETRY_BACKOFF", 500*time.Millisecond),
		},

		// Kafka configuration
		Kafka: KafkaConfig{
			Enabled:    getBoolEnv("KAFKA_ENABLED", false),
			Brokers:    getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			QuotaTopic: getEnv("KAFKA_QUOTA_TOPIC", "quota-events"),
		},

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}

	// Build composite values
	cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

// buildDatabaseDSN builds the MySQL connection string
func buildDatabaseDSN(db DatabaseConfig) string {
	return db.User + ":" + db.Password +
		"@tcp(" + db.Host + ":" + db.Port + ")/" + db.Name +
		"?" + db.Params
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

// getStringSliceEnv gets a comma-separated string environment variable as a slice
func getStringSliceEnv(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

// GetAPIBasePath returns the API base path
func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix + "/" + c.APIVersion
}
