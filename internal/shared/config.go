package shared

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// minSessionKeyLen is the smallest accepted cookie signing key.
const minSessionKeyLen = 32

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	API      APIConfig      `toml:"api"`
	Database DatabaseConfig `toml:"database"`
	CLI      CLIConfig      `toml:"cli"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig contains HTTP server settings for the web front end.
type ServerConfig struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	SessionKey     string `toml:"session_key"`
	SecureCookies  bool   `toml:"secure_cookies"`
	PreloadStaleMS int    `toml:"preload_stale_ms"`
	MaxUploadMB    int    `toml:"max_upload_mb"`
}

// APIConfig contains settings for the backend gateway.
type APIConfig struct {
	BaseURL              string `toml:"base_url"`
	TimeoutSeconds       int    `toml:"timeout_seconds"`
	UploadTimeoutSeconds int    `toml:"upload_timeout_seconds"`
	RequestsPerMinute    int    `toml:"requests_per_minute"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// CLIConfig contains settings for the command line and terminal UI.
type CLIConfig struct {
	ClientID string `toml:"client_id"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PreloadStaleTime is how long preloaded data stays usable by a navigation.
func (s ServerConfig) PreloadStaleTime() time.Duration {
	return time.Duration(s.PreloadStaleMS) * time.Millisecond
}

// MaxUploadBytes is the upload limit in bytes.
func (s ServerConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}

// Timeout is the per-request deadline for regular API calls.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// UploadTimeout is the per-request deadline for PDF uploads.
func (a APIConfig) UploadTimeout() time.Duration {
	return time.Duration(a.UploadTimeoutSeconds) * time.Second
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("%w: api.base_url is required", ErrInvalidConfig)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("%w: server.port must be positive, got %d", ErrInvalidConfig, c.Server.Port)
	}
	if len(c.Server.SessionKey) < minSessionKeyLen {
		return fmt.Errorf("%w: server.session_key must be at least %d bytes", ErrInvalidConfig, minSessionKeyLen)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values from [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// devSessionKey is the placeholder key shipped in the example config.
const devSessionKey = "novi-development-session-key-change-me"

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
//
// A non-empty sessionKey replaces the development key.
func CreateConfigFile(path, sessionKey string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	data := exampleConf
	if sessionKey != "" {
		if len(sessionKey) < minSessionKeyLen {
			return fmt.Errorf("%w: session key must be at least %d bytes", ErrInvalidConfig, minSessionKeyLen)
		}
		data = bytes.Replace(exampleConf, []byte(strconv.Quote(devSessionKey)), []byte(strconv.Quote(sessionKey)), 1)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnv loads variables from a dotenv file into the process environment.
//
// A missing file is not an error.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides config values with NOVI_* environment variables.
func ApplyEnv(c *Config) error {
	if v := os.Getenv("NOVI_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("NOVI_SESSION_KEY"); v != "" {
		c.Server.SessionKey = v
	}
	if v := os.Getenv("NOVI_DATABASE_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("NOVI_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("NOVI_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: NOVI_PORT=%q is not a number", ErrInvalidConfig, v)
		}
		c.Server.Port = port
	}
	return nil
}
