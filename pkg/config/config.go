package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	App    AppConfig
	Server ServerConfig
	Maps   MapsConfig
	Gemini GeminiConfig
	Cache  CacheConfig
	Redis  RedisConfig
	OTEL   OTELConfig
}

// AppConfig holds presentation-level settings exposed to the UI
type AppConfig struct {
	Title         string
	Env           string
	DefaultLat    float64
	DefaultLng    float64
	APITimeoutMs  int
	DefaultRadius int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// MapsConfig holds places provider configuration
type MapsConfig struct {
	APIKey string
}

// GeminiConfig holds Gemini configuration
type GeminiConfig struct {
	APIKey         string
	Model          string
	RateLimitRPM   int
	RateLimitBurst int
}

// CacheConfig selects the response cache backend
type CacheConfig struct {
	Backend  string
	Capacity int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

const (
	defaultGeminiModel = "gemini-2.0-flash-001"
	placeholderPrefix  = "your_"
)

// Load loads configuration from environment variables. A .env file in the
// working directory is read first if present; real environment wins.
func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		App: AppConfig{
			Title:         getEnv("APP_TITLE", "Restaurant Finder"),
			Env:           getEnv("APP_ENV", "production"),
			DefaultLat:    getEnvAsFloat("DEFAULT_LAT", 35.6812),
			DefaultLng:    getEnvAsFloat("DEFAULT_LNG", 139.7671),
			APITimeoutMs:  getEnvAsInt("API_TIMEOUT_MS", 30000),
			DefaultRadius: getEnvAsInt("DEFAULT_RADIUS_METERS", 1000),
		},
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Maps: MapsConfig{
			APIKey: getEnv("MAPS_API_KEY", ""),
		},
		Gemini: GeminiConfig{
			APIKey:         getEnv("GEMINI_API_KEY", ""),
			Model:          getEnv("GEMINI_MODEL", defaultGeminiModel),
			RateLimitRPM:   getEnvAsInt("GEMINI_RATE_LIMIT_RPM", 60),
			RateLimitBurst: getEnvAsInt("GEMINI_RATE_LIMIT_BURST", 5),
		},
		Cache: CacheConfig{
			Backend:  strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
			Capacity: getEnvAsInt("CACHE_CAPACITY", 1000),
		},
		Redis: RedisConfig{
			Host:      getEnv("REDIS_HOST", "localhost"),
			Port:      getEnvAsInt("REDIS_PORT", 6379),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "restaurantfinder"),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "restaurant-finder"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// IsDevelopment reports whether the app runs in development mode
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// APITimeout returns the per-call timeout for external providers
func (c *AppConfig) APITimeout() time.Duration {
	if c.APITimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.APITimeoutMs) * time.Millisecond
}

// Enabled reports whether a usable maps key is configured
func (c *MapsConfig) Enabled() bool {
	return IsUsableCredential(c.APIKey)
}

// Enabled reports whether a usable Gemini key is configured
func (c *GeminiConfig) Enabled() bool {
	return IsUsableCredential(c.APIKey)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsUsableCredential rejects empty values and template placeholders such as
// "your_gemini_api_key_here".
func IsUsableCredential(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	return !strings.HasPrefix(strings.ToLower(value), placeholderPrefix)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
