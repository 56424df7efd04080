package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	ContentBackendDatabase = "database"
	ContentBackendHTTP     = "http"
)

type Config struct {
	// Database
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	DatabaseURL string

	// Redis
	EnableRedis bool
	RedisURL    string

	// JWT
	JWTSecret string
	// EditorAccounts holds "email:role:bcrypt-hash" entries.
	EditorAccounts []string

	// Server
	Port        string
	Environment string

	// Logging
	LogLevel string
	LogJSON  bool

	// CORS
	CORSOrigins []string

	// Upload
	UploadDir     string
	MaxUploadSize int64

	// Rate Limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitBurst    int

	// Templates
	TemplatesDir    string
	DefaultTemplate string
	WatchTemplates  bool

	// Content
	ContentBackend     string
	SiteKey            string
	ContentAPIURL      string
	ContentAPIToken    string
	ContentAPITimeout  time.Duration
	ContentAPIAttempts int
	SeedContent        bool

	// Editor
	PreviewIdleTTL     time.Duration
	PreviewSweepPeriod time.Duration

	ShutdownTimeout time.Duration

	// Features
	EnableCache   bool
	EnableMetrics bool
}

func New() *Config {
	c := &Config{
		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "sitebuilder"),
		DBPassword: getEnv("DB_PASSWORD", "sitebuilder"),
		DBName:     getEnv("DB_NAME", "sitebuilder"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Redis
		EnableRedis: getEnvAsBool("ENABLE_REDIS", true),
		RedisURL:    getEnv("REDIS_URL", "localhost:6379"),

		// JWT
		JWTSecret:      getEnv("JWT_SECRET", "your-super-secret-jwt-key-change-this-in-production"),
		EditorAccounts: splitList(getEnv("EDITOR_ACCOUNTS", "")),

		// Server
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogJSON:  getEnvAsBool("LOG_JSON", false),

		// CORS
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080")),

		// Upload
		UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadSize: int64(getEnvAsInt("MAX_UPLOAD_SIZE", 10*1024*1024)),

		// Rate Limiting
		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitBurst:    getEnvAsInt("RATE_LIMIT_BURST", 0),

		// Templates
		TemplatesDir:    getEnv("TEMPLATES_DIR", "./templates"),
		DefaultTemplate: getEnv("DEFAULT_TEMPLATE", "default"),
		WatchTemplates:  getEnvAsBool("TEMPLATE_WATCH", false),

		// Content
		ContentBackend:     strings.ToLower(getEnv("CONTENT_BACKEND", ContentBackendDatabase)),
		SiteKey:            getEnv("SITE_KEY", "default"),
		ContentAPIURL:      getEnv("CONTENT_API_URL", ""),
		ContentAPIToken:    getEnv("CONTENT_API_TOKEN", ""),
		ContentAPITimeout:  getEnvAsDuration("CONTENT_API_TIMEOUT", 10*time.Second),
		ContentAPIAttempts: getEnvAsInt("CONTENT_API_ATTEMPTS", 3),
		SeedContent:        getEnvAsBool("SEED_CONTENT", true),

		// Editor
		PreviewIdleTTL:     getEnvAsDuration("PREVIEW_IDLE_TTL", 30*time.Minute),
		PreviewSweepPeriod: getEnvAsDuration("PREVIEW_SWEEP_PERIOD", time.Minute),

		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		// Features
		EnableCache:   getEnvAsBool("ENABLE_CACHE", true),
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}

	// Build DSN
	c.DatabaseURL = getEnv("DATABASE_URL", fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	))

	return c
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.ContentBackend {
	case ContentBackendDatabase:
	case ContentBackendHTTP:
		if strings.TrimSpace(c.ContentAPIURL) == "" {
			return fmt.Errorf("CONTENT_API_URL is required when CONTENT_BACKEND is %q", ContentBackendHTTP)
		}
	default:
		return fmt.Errorf("unknown CONTENT_BACKEND %q", c.ContentBackend)
	}

	if c.IsProduction() && strings.Contains(c.JWTSecret, "change-this") {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.PreviewSweepPeriod <= 0 {
		return fmt.Errorf("PREVIEW_SWEEP_PERIOD must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var value int
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return valueStr == "true" || valueStr == "1"
}

// getEnvAsDuration accepts Go durations ("90s") and bare seconds ("90").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	var seconds int
	if _, err := fmt.Sscanf(valueStr, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
