package shared

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./novi.db" {
			t.Errorf("expected database path ./novi.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.API.BaseURL != "http://127.0.0.1:8080" {
			t.Errorf("expected api base URL http://127.0.0.1:8080, got %s", config.API.BaseURL)
		}

		if config.API.RequestsPerMinute != 100 {
			t.Errorf("expected 100 requests per minute, got %d", config.API.RequestsPerMinute)
		}

		if config.Server.PreloadStaleTime() != 0 {
			t.Errorf("expected zero preload stale time, got %v", config.Server.PreloadStaleTime())
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath, ""); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath, ""); err == nil {
			t.Error("creating config file again should fail")
		}

		t.Run("With Session Key", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			key := strings.Repeat("k", 40)

			if err := CreateConfigFile(path, key); err != nil {
				t.Fatalf("failed to create config file: %v", err)
			}
			config, err := LoadConfig(path)
			if err != nil {
				t.Fatal(err)
			}
			if config.Server.SessionKey != key {
				t.Errorf("expected generated key, got %q", config.Server.SessionKey)
			}
		})

		t.Run("Short Session Key", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := CreateConfigFile(path, "short"); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8081
preload_stale_ms = 1500

[api]
base_url = "http://gateway.internal:8080"
upload_timeout_seconds = 90
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Addr() != "0.0.0.0:8081" {
			t.Errorf("expected addr 0.0.0.0:8081, got %s", config.Server.Addr())
		}

		if config.Server.PreloadStaleTime() != 1500*time.Millisecond {
			t.Errorf("expected 1.5s stale time, got %v", config.Server.PreloadStaleTime())
		}

		if config.API.UploadTimeout() != 90*time.Second {
			t.Errorf("expected 90s upload timeout, got %v", config.API.UploadTimeout())
		}

		if config.API.TimeoutSeconds != 30 {
			t.Errorf("missing keys should keep defaults, got timeout %d", config.API.TimeoutSeconds)
		}

		if config.CLI.ClientID != "cli" {
			t.Errorf("expected default cli client id, got %s", config.CLI.ClientID)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}

func TestConfigValidate(t *testing.T) {
	tc := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "Empty Base URL", mutate: func(c *Config) { c.API.BaseURL = " " }},
		{name: "Zero Port", mutate: func(c *Config) { c.Server.Port = 0 }},
		{name: "Short Session Key", mutate: func(c *Config) { c.Server.SessionKey = "short" }},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestEnv(t *testing.T) {
	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("NOVI_API_BASE_URL", "http://api.example.test")
		t.Setenv("NOVI_PORT", "4000")
		t.Setenv("NOVI_LOG_LEVEL", "debug")

		config := DefaultConfig()
		if err := ApplyEnv(config); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if config.API.BaseURL != "http://api.example.test" {
			t.Errorf("expected overridden base URL, got %s", config.API.BaseURL)
		}
		if config.Server.Port != 4000 {
			t.Errorf("expected port 4000, got %d", config.Server.Port)
		}
		if config.Log.Level != "debug" {
			t.Errorf("expected log level debug, got %s", config.Log.Level)
		}
	})

	t.Run("ApplyEnv Bad Port", func(t *testing.T) {
		t.Setenv("NOVI_PORT", "eighty")

		err := ApplyEnv(DefaultConfig())
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadEnv Missing File", func(t *testing.T) {
		if err := LoadEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Errorf("missing env file should be ignored, got %v", err)
		}
	})

	t.Run("LoadEnv", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte("NOVI_TEST_LOAD_ENV=loaded\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Cleanup(func() { os.Unsetenv("NOVI_TEST_LOAD_ENV") })

		if err := LoadEnv(path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := os.Getenv("NOVI_TEST_LOAD_ENV"); !strings.EqualFold(got, "loaded") {
			t.Errorf("expected loaded, got %q", got)
		}
	})
}
