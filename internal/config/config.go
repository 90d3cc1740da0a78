// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for one service process
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Security SecurityConfig
	Merchant MerchantConfig
	PSP      PSPConfig
	Client   ClientConfig
	Receipt  ReceiptConfig
	Logging  LoggingConfig
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string
	Version     string
	Environment string
	Debug       bool
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
}

// SecurityConfig contains protocol security configuration shared by the
// merchant and PSP HTTP surfaces
type SecurityConfig struct {
	// APIKeys are the accepted bearer keys. Entries may be plain values or
	// bcrypt hashes (recognized by their $2 prefix).
	APIKeys            []string
	TimestampWindow    time.Duration
	TimestampSkew      time.Duration
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
}

// MerchantConfig contains merchant-side configuration
type MerchantConfig struct {
	MerchantID     string
	Currency       string
	BaseURL        string
	PSPBaseURL     string
	PSPAuthSecret  string
	PSPCallTimeout time.Duration
}

// PSPConfig contains PSP-side configuration
type PSPConfig struct {
	// ProcessingDelay models the settlement round-trip on payment intents.
	ProcessingDelay time.Duration
	MerchantSecret  string
}

// ClientConfig contains orchestrating-client configuration
type ClientConfig struct {
	MerchantBaseURL string
	PSPBaseURL      string
	MerchantAPIKey  string
	PSPAPIKey       string
	APIVersion      string
	RequestTimeout  time.Duration
}

// ReceiptConfig contains order receipt PDF configuration
type ReceiptConfig struct {
	Enabled     bool
	CompanyName string
	CompanyURL  string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "ACP Demo"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
			Debug:       getEnvAsBool("APP_DEBUG", true),
		},
		Server: ServerConfig{
			Port:         getEnv("APP_PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Name:         getEnv("DB_NAME", "acp_merchant"),
			User:         getEnv("DB_USER", "acp_user"),
			Password:     getEnv("DB_PASSWORD", "acp_password"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 300*time.Second),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
		},
		Security: SecurityConfig{
			APIKeys:            getEnvAsSlice("API_KEYS", []string{"test_api_key"}),
			TimestampWindow:    getEnvAsDuration("TIMESTAMP_WINDOW", 5*time.Minute),
			TimestampSkew:      getEnvAsDuration("TIMESTAMP_SKEW", 30*time.Second),
			RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 100),
			CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			CORSAllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
			CORSAllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization", "API-Version", "Idempotency-Key", "Request-Id", "Timestamp", "Signature", "Accept-Language", "User-Agent"}),
		},
		Merchant: MerchantConfig{
			MerchantID:     getEnv("MERCHANT_ID", "merchant_demo"),
			Currency:       getEnv("MERCHANT_CURRENCY", "usd"),
			BaseURL:        getEnv("MERCHANT_BASE_URL", "http://localhost:8080"),
			PSPBaseURL:     getEnv("MERCHANT_PSP_BASE_URL", "http://localhost:8081"),
			PSPAuthSecret:  getEnv("MERCHANT_PSP_AUTH_SECRET", "acp-demo-merchant-psp-shared-secret-0001"),
			PSPCallTimeout: getEnvAsDuration("MERCHANT_PSP_CALL_TIMEOUT", 30*time.Second),
		},
		PSP: PSPConfig{
			ProcessingDelay: getEnvAsDuration("PSP_PROCESSING_DELAY", 2*time.Second),
			MerchantSecret:  getEnv("PSP_MERCHANT_SECRET", "acp-demo-merchant-psp-shared-secret-0001"),
		},
		Client: ClientConfig{
			MerchantBaseURL: getEnv("CLIENT_MERCHANT_BASE_URL", "http://localhost:8080"),
			PSPBaseURL:      getEnv("CLIENT_PSP_BASE_URL", "http://localhost:8081"),
			MerchantAPIKey:  getEnv("CLIENT_MERCHANT_API_KEY", "test_api_key"),
			PSPAPIKey:       getEnv("CLIENT_PSP_API_KEY", "test_api_key"),
			APIVersion:      getEnv("CLIENT_API_VERSION", "2025-09-29"),
			RequestTimeout:  getEnvAsDuration("CLIENT_REQUEST_TIMEOUT", 30*time.Second),
		},
		Receipt: ReceiptConfig{
			Enabled:     getEnvAsBool("RECEIPT_ENABLED", false),
			CompanyName: getEnv("RECEIPT_COMPANY_NAME", "ACP Demo Store"),
			CompanyURL:  getEnv("RECEIPT_COMPANY_URL", "https://example.com"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "debug"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("APP_PORT is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if len(c.Security.APIKeys) == 0 {
		return fmt.Errorf("API_KEYS is required")
	}
	if len(c.Merchant.PSPAuthSecret) < 32 {
		return fmt.Errorf("MERCHANT_PSP_AUTH_SECRET must be at least 32 characters long")
	}
	if len(c.PSP.MerchantSecret) < 32 {
		return fmt.Errorf("PSP_MERCHANT_SECRET must be at least 32 characters long")
	}
	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
