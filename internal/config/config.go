// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port              string
	Environment       string
	OpenAIAPIKey      string
	AnthropicAPIKey   string
	GeminiAPIKey      string
	PerplexityAPIKey  string
	DatabaseURL       string
	RedisURL          string
	ReportingTimezone string
	Database          DatabaseConfig
	Runner            RunnerConfig
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

// RunnerConfig bounds the orchestrator's concurrent provider fan-out.
type RunnerConfig struct {
	MaxConcurrentCalls int
	MaxRetries         int
	RetryBaseDelay     time.Duration
	ProviderTimeout    time.Duration
}

func Load() *Config {
	config := &Config{
		Port:              getEnv("PORT", "8000"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		PerplexityAPIKey:  os.Getenv("PERPLEXITY_API_KEY"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		ReportingTimezone: getEnv("REPORTING_TIMEZONE", "UTC"),
	}

	dbConfig, err := parseDatabaseConfig()
	if err != nil {
		// Fall back to individual env vars when DATABASE_URL is absent or malformed
		dbConfig = DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "senso_visibility"),
			SSLMode:         getEnv("DB_SSLMODE", "require"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 300),
		}
	}
	config.Database = dbConfig

	config.Runner = RunnerConfig{
		MaxConcurrentCalls: getEnvInt("RUNNER_MAX_CONCURRENT_CALLS", 6),
		MaxRetries:         getEnvInt("RUNNER_MAX_RETRIES", 3),
		RetryBaseDelay:     time.Duration(getEnvInt("RUNNER_RETRY_BASE_DELAY_MS", 500)) * time.Millisecond,
		ProviderTimeout:    time.Duration(getEnvInt("RUNNER_PROVIDER_TIMEOUT_SECS", 90)) * time.Second,
	}

	return config
}

func parseDatabaseConfig() (DatabaseConfig, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return DatabaseConfig{}, fmt.Errorf("DATABASE_URL not set")
	}

	parsedURL, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	if parsedURL.Path == "" {
		return DatabaseConfig{}, fmt.Errorf("DATABASE_URL missing database name")
	}

	config := DatabaseConfig{
		Host:            parsedURL.Hostname(),
		Port:            5432,
		User:            parsedURL.User.Username(),
		Name:            parsedURL.Path[1:],
		SSLMode:         getEnv("DB_SSLMODE", "require"),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 25),
		ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 300),
	}

	if password, ok := parsedURL.User.Password(); ok {
		config.Password = password
	}

	if parsedURL.Port() != "" {
		if port, err := strconv.Atoi(parsedURL.Port()); err == nil {
			config.Port = port
		}
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
