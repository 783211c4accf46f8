package config

import (
	"fmt"
	"os"
	"strconv"

	"propztest/domain/stats"
	"propztest/internal"
	"propztest/internal/errors"
	"propztest/internal/ztest"
)

// Config represents the complete application configuration
type Config struct {
	Test     TestConfig
	Server   ServerConfig
	LogLevel internal.LogLevel
}

// TestConfig holds the z-test defaults
type TestConfig struct {
	Alpha            float64
	MinSampleSize    int
	StrictSampleSize bool
	Convention       stats.Convention
}

// Tester converts the settings into z-test configuration.
func (c TestConfig) Tester() ztest.Config {
	return ztest.Config{
		Alpha:            c.Alpha,
		MinSampleSize:    c.MinSampleSize,
		StrictSampleSize: c.StrictSampleSize,
		Convention:       c.Convention,
	}
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	testConfig, err := loadTestConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load test configuration")
	}

	config := &Config{
		Test:     *testConfig,
		Server:   *loadServerConfig(),
		LogLevel: internal.ParseLogLevel(os.Getenv("LOG_LEVEL")),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadTestConfig() (*TestConfig, error) {
	convention, err := stats.ParseConvention(os.Getenv("ZTEST_CONVENTION"))
	if err != nil {
		return nil, errors.ConfigInvalid(err.Error())
	}

	alpha, err := getEnvFloat("ZTEST_ALPHA", stats.DefaultAlpha)
	if err != nil {
		return nil, err
	}
	minSampleSize, err := getEnvInt("ZTEST_MIN_SAMPLE_SIZE", stats.DefaultMinSampleSize)
	if err != nil {
		return nil, err
	}
	strict, err := getEnvBool("ZTEST_STRICT_SAMPLE_SIZE", false)
	if err != nil {
		return nil, err
	}

	return &TestConfig{
		Alpha:            alpha,
		MinSampleSize:    minSampleSize,
		StrictSampleSize: strict,
		Convention:       convention,
	}, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port: getEnvOrDefault("PORT", "8080"),
	}
}

func validateConfig(config *Config) error {
	if config.Test.Alpha <= 0 || config.Test.Alpha >= 1 {
		return errors.ConfigInvalid(fmt.Sprintf("ZTEST_ALPHA must be in (0, 1), got %g", config.Test.Alpha))
	}
	if config.Test.MinSampleSize < 1 {
		return errors.ConfigInvalid("ZTEST_MIN_SAMPLE_SIZE must be positive")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// The getEnv* parsers fail on an unparseable value; a mistyped setting must
// not silently fall back to the default.
func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s: %q is not a number", key, value))
	}
	return f, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s: %q is not an integer", key, value))
	}
	return i, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, errors.ConfigInvalid(fmt.Sprintf("%s: %q is not a boolean", key, value))
	}
	return b, nil
}
