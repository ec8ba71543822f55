package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/potencialpi/sentiment-cx/internal/errors"

	"github.com/go-playground/validator/v10"
)

// Config represents the complete application configuration
type Config struct {
	Analysis AnalysisConfig
	Logging  LoggingConfig
	Database DatabaseConfig
	Output   OutputConfig
}

// AnalysisConfig holds the defaults for every analysis request
type AnalysisConfig struct {
	Seed             int64
	KMin             int     `validate:"gte=2"`
	KMax             int     `validate:"gtefield=KMin"`
	Restarts         int     `validate:"gte=1,lte=100"`
	ClusterVariables []string
	MaxANOVAGroups   int     `validate:"gte=2"`
	NumericThreshold float64 `validate:"gt=0,lte=1"`
}

// LoggingConfig selects the zap encoder and level
type LoggingConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
}

// DatabaseConfig holds the optional SQL record source
type DatabaseConfig struct {
	URL string `validate:"omitempty,url"`
}

// OutputConfig holds presentation and batch settings
type OutputConfig struct {
	LabelsFile       string
	MetricsFile      string
	BatchConcurrency int `validate:"gte=1,lte=64"`
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Analysis: loadAnalysisConfig(),
		Logging:  loadLoggingConfig(),
		Database: DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		Output:   loadOutputConfig(),
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// Validate checks field ranges. Callers that override fields after Load should
// validate again.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err, "invalid configuration")
	}
	return nil
}

func loadAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		Seed:             getEnvInt64OrDefault("SCX_SEED", 0),
		KMin:             getEnvIntOrDefault("SCX_K_MIN", 2),
		KMax:             getEnvIntOrDefault("SCX_K_MAX", 5),
		Restarts:         getEnvIntOrDefault("SCX_KMEANS_RESTARTS", 1),
		ClusterVariables: getEnvListOrDefault("SCX_CLUSTER_VARIABLES", nil),
		MaxANOVAGroups:   getEnvIntOrDefault("SCX_MAX_ANOVA_GROUPS", 20),
		NumericThreshold: getEnvFloatOrDefault("SCX_NUMERIC_THRESHOLD", 1.0),
	}
}

func loadLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:  strings.ToLower(getEnvOrDefault("SCX_LOG_LEVEL", "info")),
		Format: strings.ToLower(getEnvOrDefault("SCX_LOG_FORMAT", "console")),
	}
}

func loadOutputConfig() OutputConfig {
	return OutputConfig{
		LabelsFile:       getEnvOrDefault("SCX_LABELS_FILE", ""),
		MetricsFile:      getEnvOrDefault("SCX_METRICS_FILE", ""),
		BatchConcurrency: getEnvIntOrDefault("SCX_BATCH_CONCURRENCY", 4),
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvListOrDefault splits a comma-separated value, dropping blanks
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
