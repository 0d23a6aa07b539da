package config

import "time"

// AuthType defines how /analyze requests are authenticated
type AuthType string

const (
	AuthTypeNone   AuthType = "none"
	AuthTypeBearer AuthType = "bearer"
)

// Config represents the complete application configuration
type Config struct {
	LogLevel   string           `yaml:"log_level"`
	Server     ServerConfig     `yaml:"server"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Upload     UploadConfig     `yaml:"upload"`
	Static     StaticConfig     `yaml:"static"`
	Auth       AuthConfig       `yaml:"auth"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int    `yaml:"port"`
	ReadTimeout     string `yaml:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// ClassifierConfig holds settings for the external classifier process
type ClassifierConfig struct {
	// Bin is the runtime executable, e.g. a python interpreter.
	Bin string `yaml:"bin"`
	// Script is the inference entrypoint handed to Bin. Empty means Bin
	// is invoked directly with the image path as its only argument.
	Script        string `yaml:"script"`
	Timeout       string `yaml:"timeout"`
	MaxConcurrent int    `yaml:"max_concurrent"`
}

// UploadConfig holds upload acceptance and normalization policy
type UploadConfig struct {
	MaxSize        int64    `yaml:"max_size"`
	AllowedFormats []string `yaml:"allowed_formats"`
	Normalize      bool     `yaml:"normalize"`
	NormalizeSize  int      `yaml:"normalize_size"`
	TempDir        string   `yaml:"temp_dir"`
}

// StaticConfig holds settings for serving the compiled client application
type StaticConfig struct {
	Dir string `yaml:"dir"`
}

// AuthConfig defines authentication for the analyze endpoint
type AuthConfig struct {
	Type  AuthType `yaml:"type"`
	Token string   `yaml:"token"`
}

// ParseDuration converts string duration to time.Duration
func (c *Config) ParseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}
