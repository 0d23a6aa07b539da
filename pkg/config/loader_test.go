package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.Server.Port != 3000 {
		t.Errorf("default port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Upload.MaxSize != 20*1024*1024 {
		t.Errorf("default max_size = %d, want 20MiB", cfg.Upload.MaxSize)
	}
	if cfg.Upload.NormalizeSize != 224 {
		t.Errorf("default normalize_size = %d, want 224", cfg.Upload.NormalizeSize)
	}
	if cfg.Auth.Type != AuthTypeNone {
		t.Errorf("default auth type = %s, want none", cfg.Auth.Type)
	}
	if len(cfg.Upload.AllowedFormats) == 0 {
		t.Error("default allowed_formats is empty")
	}
}

func TestApplyDefaultsClassifierScript(t *testing.T) {
	tests := []struct {
		name       string
		bin        string
		script     string
		wantBin    string
		wantScript string
	}{
		{
			name:       "no bin gets interpreter and script",
			wantBin:    "python3",
			wantScript: "predict.py",
		},
		{
			name:       "direct binary gets no script injected",
			bin:        "/usr/local/bin/tyre-model",
			wantBin:    "/usr/local/bin/tyre-model",
			wantScript: "",
		},
		{
			name:       "explicit bin and script kept as given",
			bin:        "/usr/bin/python3",
			script:     "model/predict.py",
			wantBin:    "/usr/bin/python3",
			wantScript: "model/predict.py",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.Classifier.Bin = tt.bin
			cfg.Classifier.Script = tt.script
			cfg.applyDefaults()

			if cfg.Classifier.Bin != tt.wantBin {
				t.Errorf("bin = %q, want %q", cfg.Classifier.Bin, tt.wantBin)
			}
			if cfg.Classifier.Script != tt.wantScript {
				t.Errorf("script = %q, want %q", cfg.Classifier.Script, tt.wantScript)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "missing classifier bin",
			mutate:  func(c *Config) { c.Classifier.Bin = "" },
			wantErr: true,
		},
		{
			name:    "negative max size",
			mutate:  func(c *Config) { c.Upload.MaxSize = -1 },
			wantErr: true,
		},
		{
			name:    "unknown upload format",
			mutate:  func(c *Config) { c.Upload.AllowedFormats = []string{"heic"} },
			wantErr: true,
		},
		{
			name:    "bearer auth without token",
			mutate:  func(c *Config) { c.Auth.Type = AuthTypeBearer },
			wantErr: true,
		},
		{
			name: "bearer auth with token",
			mutate: func(c *Config) {
				c.Auth.Type = AuthTypeBearer
				c.Auth.Token = "secret"
			},
			wantErr: false,
		},
		{
			name:    "bad duration",
			mutate:  func(c *Config) { c.Classifier.Timeout = "soon" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	os.Setenv("TEST_ANALYZE_TOKEN", "from-env")
	defer os.Unsetenv("TEST_ANALYZE_TOKEN")

	content := `
log_level: debug
server:
  port: 8081
classifier:
  bin: /usr/bin/python3
  script: predict.py
auth:
  type: bearer
  token: ${TEST_ANALYZE_TOKEN}
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8081 {
		t.Errorf("port = %d, want 8081", cfg.Server.Port)
	}
	if cfg.Auth.Token != "from-env" {
		t.Errorf("token = %q, want expanded env value", cfg.Auth.Token)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Load() expected error for missing file")
	}
}
