package config

import (
	"os"
	"strconv"
)

// EnvConfig holds environment variable-based configuration
type EnvConfig struct {
	Port             int
	LogLevel         string
	ConfigFile       string
	ClassifierBin    string
	ClassifierScript string
	StaticDir        string
}

// LoadFromEnv reads configuration from environment variables
func LoadFromEnv() *EnvConfig {
	env := &EnvConfig{
		Port:             getEnvAsInt("PORT", 0),
		LogLevel:         getEnv("LOG_LEVEL", ""),
		ConfigFile:       getEnv("CONFIG_FILE", "config.yaml"),
		ClassifierBin:    getEnv("CLASSIFIER_BIN", ""),
		ClassifierScript: getEnv("CLASSIFIER_SCRIPT", ""),
		StaticDir:        getEnv("STATIC_DIR", ""),
	}

	return env
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
