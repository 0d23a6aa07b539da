package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadConfig builds the effective configuration: optional YAML file,
// then environment variable overrides, then defaults and validation.
// A missing config file is not an error; the environment surface alone
// is enough to run the relay.
func LoadConfig() (*Config, error) {
	env := LoadFromEnv()

	cfg := &Config{}
	if _, err := os.Stat(env.ConfigFile); err == nil {
		loaded, err := Load(env.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	cfg.applyEnvOverrides(env)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Load reads and parses the YAML configuration file
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the config
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides lets the environment surface win over the file for
// the settings deployments commonly override per instance
func (c *Config) applyEnvOverrides(env *EnvConfig) {
	if env.Port != 0 {
		c.Server.Port = env.Port
	}
	if env.LogLevel != "" {
		c.LogLevel = env.LogLevel
	}
	if env.ClassifierBin != "" {
		c.Classifier.Bin = env.ClassifierBin
	}
	if env.ClassifierScript != "" {
		c.Classifier.Script = env.ClassifierScript
	}
	if env.StaticDir != "" {
		c.Static.Dir = env.StaticDir
	}
}

// applyDefaults sets default values for unspecified configuration options
func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "30s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "120s"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "30s"
	}

	// Classifier defaults. The script default only applies together with
	// the interpreter default: a deployment that points bin at a
	// standalone classifier binary gets it invoked directly, with the
	// image path as its only argument.
	if c.Classifier.Bin == "" {
		c.Classifier.Bin = "python3"
		if c.Classifier.Script == "" {
			c.Classifier.Script = "predict.py"
		}
	}
	if c.Classifier.Timeout == "" {
		c.Classifier.Timeout = "60s"
	}
	if c.Classifier.MaxConcurrent == 0 {
		c.Classifier.MaxConcurrent = 4
	}

	// Upload defaults
	if c.Upload.MaxSize == 0 {
		c.Upload.MaxSize = 20 * 1024 * 1024 // 20MB
	}
	if len(c.Upload.AllowedFormats) == 0 {
		c.Upload.AllowedFormats = []string{"jpeg", "png", "webp", "bmp", "gif"}
	}
	if c.Upload.NormalizeSize == 0 {
		c.Upload.NormalizeSize = 224
	}
	if c.Upload.TempDir == "" {
		c.Upload.TempDir = os.TempDir()
	}

	if c.Static.Dir == "" {
		c.Static.Dir = "tyrecheck-pwa/dist/tyrecheck-pwa/browser"
	}

	if c.Auth.Type == "" {
		c.Auth.Type = AuthTypeNone
	}
}

// Validate checks the configuration for required fields and valid values
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1-65535, got: %d", c.Server.Port)
	}

	if c.Classifier.Bin == "" {
		return fmt.Errorf("classifier.bin is required")
	}
	if c.Classifier.MaxConcurrent < 1 {
		return fmt.Errorf("classifier.max_concurrent must be positive, got: %d", c.Classifier.MaxConcurrent)
	}

	if c.Upload.MaxSize < 1 {
		return fmt.Errorf("upload.max_size must be positive, got: %d", c.Upload.MaxSize)
	}
	if c.Upload.NormalizeSize < 1 {
		return fmt.Errorf("upload.normalize_size must be positive, got: %d", c.Upload.NormalizeSize)
	}
	for _, format := range c.Upload.AllowedFormats {
		if err := validateFormat(format); err != nil {
			return err
		}
	}

	if c.Auth.Type != AuthTypeNone && c.Auth.Type != AuthTypeBearer {
		return fmt.Errorf("auth.type must be 'none' or 'bearer', got: %s", c.Auth.Type)
	}
	if c.Auth.Type == AuthTypeBearer && c.Auth.Token == "" {
		return fmt.Errorf("auth.token is required when auth.type is 'bearer'")
	}

	// Validate duration strings
	durations := map[string]string{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"classifier.timeout":      c.Classifier.Timeout,
	}

	for name, value := range durations {
		if _, err := c.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	return nil
}

func validateFormat(format string) error {
	validFormats := []string{"jpeg", "png", "webp", "bmp", "gif"}
	for _, valid := range validFormats {
		if format == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid upload format '%s', must be one of: %s",
		format, strings.Join(validFormats, ", "))
}
