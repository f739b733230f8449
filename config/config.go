package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	// HTTP server
	HTTPAddr       string
	AllowedOrigins []string

	// Page fetching
	FetchTimeout time.Duration
	MaxRedirects int

	// Headless rendering fallback
	RenderEnabled    bool
	RenderBrowserURL string
	RenderTimeout    time.Duration

	// Mercado Livre item lookup API
	MLAPIEnabled bool
	MLAPIURL     string
	MLAPIToken   string

	// Memcache configuration
	MemcacheAddr string
	CacheTTL     time.Duration

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int
	PublishQueueSize     int

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	redisStreamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	redisStreamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "1000"))
	publishQueueSize, _ := strconv.Atoi(getEnv("PUBLISH_QUEUE_SIZE", "100"))
	fetchTimeout, _ := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", "15"))
	maxRedirects, _ := strconv.Atoi(getEnv("MAX_REDIRECTS", "10"))
	renderTimeout, _ := strconv.Atoi(getEnv("RENDER_TIMEOUT_SECONDS", "25"))
	cacheTTL, _ := strconv.Atoi(getEnv("CACHE_TTL_SECONDS", "120"))

	return &Config{
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		AllowedOrigins:       splitList(getEnv("ALLOWED_ORIGINS", "*")),
		FetchTimeout:         time.Duration(fetchTimeout) * time.Second,
		MaxRedirects:         maxRedirects,
		RenderEnabled:        getBool("RENDER_ENABLED", false),
		RenderBrowserURL:     getEnv("RENDER_BROWSER_URL", ""),
		RenderTimeout:        time.Duration(renderTimeout) * time.Second,
		MLAPIEnabled:         getBool("ML_API_ENABLED", false),
		MLAPIURL:             getEnv("ML_API_URL", "https://api.mercadolibre.com"),
		MLAPIToken:           getEnv("ML_API_TOKEN", ""),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		CacheTTL:             time.Duration(cacheTTL) * time.Second,
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "promos"),
		RedisStreamCount:     redisStreamCount,
		RedisStreamMaxLength: redisStreamMaxLength,
		PublishQueueSize:     publishQueueSize,
		Environment:          getEnv("PROMO_ENVIRONMENT", "development"),
	}
}

// Validate checks values that would otherwise fail later at request time
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT_SECONDS must be positive")
	}
	if c.MaxRedirects <= 0 {
		return fmt.Errorf("MAX_REDIRECTS must be positive")
	}
	if c.RenderEnabled && c.RenderTimeout <= 0 {
		return fmt.Errorf("RENDER_TIMEOUT_SECONDS must be positive when rendering is enabled")
	}
	if c.MLAPIEnabled {
		if _, err := url.ParseRequestURI(c.MLAPIURL); err != nil {
			return fmt.Errorf("invalid ML_API_URL: %w", err)
		}
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must not be negative")
	}
	if c.RedisAddr != "" && c.RedisStreamCount <= 0 {
		return fmt.Errorf("REDIS_STREAM_COUNT must be positive")
	}
	if c.PublishQueueSize <= 0 {
		return fmt.Errorf("PUBLISH_QUEUE_SIZE must be positive")
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
