package config

import (
	"os"
	"strconv"
	"time"
)

// Application settings
type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	Report   ReportConfig
	External ExternalConfig
}

// Server settings
type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

type ReportConfig struct {
	RequestTimeout     time.Duration
	RateLimitPerSecond int
	ConfigCacheTTL     time.Duration
	// optional YAML file with the default session and pivot
	DefaultsPath string
}

type ExternalConfig struct {
	AdsAPIURL         string
	AdsAPIToken       string
	AdsClientID       string
	ConfigStoreURL    string
	ConfigStoreSecret string
}

// Logging settings
type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", "10s"),
		},
		Report: ReportConfig{
			RequestTimeout:     getDurationEnv("REQUEST_TIMEOUT", "30s"),
			RateLimitPerSecond: getIntEnv("RATE_LIMIT_PER_SECOND", 100),
			ConfigCacheTTL:     getDurationEnv("CONFIG_CACHE_TTL", "5m"),
			DefaultsPath:       getEnv("REPORT_CONFIG_PATH", ""),
		},
		External: ExternalConfig{
			AdsAPIURL:         getEnv("ADS_API_URL", ""),
			AdsAPIToken:       getEnv("ADS_API_TOKEN", ""),
			AdsClientID:       getEnv("ADS_API_CLIENT_ID", ""),
			ConfigStoreURL:    getEnv("CONFIG_STORE_URL", ""),
			ConfigStoreSecret: getEnv("CONFIG_STORE_SECRET", ""),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
