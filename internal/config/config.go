// Package config loads the dashboard configuration from YAML, .env and the
// environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file.
const (
	EnvBaseURL = "WORKMATE_PORTAL_URL"
	EnvToken   = "WORKMATE_PORTAL_TOKEN"
)

type Config struct {
	Portal PortalConfig `yaml:"portal"`
	Sync   SyncConfig   `yaml:"sync"`
	Logger LoggerConfig `yaml:"logger"`
}

type PortalConfig struct {
	BaseURL        string        `yaml:"base_url"`
	WSURL          string        `yaml:"ws_url"` // derived from base_url when empty
	Token          string        `yaml:"token"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type SyncConfig struct {
	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	ChatCapacity      int           `yaml:"chat_capacity"`
	AlertCapacity     int           `yaml:"alert_capacity"`
}

type LoggerConfig struct {
	Level      string `yaml:"level"`     // debug, info, warn, error
	Format     string `yaml:"format"`    // json, console
	Output     string `yaml:"output"`    // stdout, stderr, file
	FilePath   string `yaml:"file_path"` // used when output is file
	MaxSize    int    `yaml:"max_size"`  // MB
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"` // days
	Compress   bool   `yaml:"compress"`
	Color      bool   `yaml:"color"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Portal: PortalConfig{
			BaseURL:        "http://localhost:8080",
			RequestTimeout: 10 * time.Second,
		},
		Sync: SyncConfig{
			ReconnectDelay: 3 * time.Second,
			PollInterval:      30 * time.Second,
			HeartbeatInterval: 30 * time.Second,
			ChatCapacity:      100,
			AlertCapacity:     50,
		},
		Logger: LoggerConfig{
			Level:      "info",
			Format:     "json",
			Output:     "file",
			FilePath:   defaultLogPath(),
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		},
	}
}

func defaultLogPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return dir + "/live-dash/live-dash.log"
}

// Load reads path over the defaults. A missing file is not an error. A
// .env file in the working directory is loaded first, ${VAR} and
// ${VAR:default} placeholders are expanded, then EnvBaseURL and EnvToken
// override what the file says.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(resolveEnv(data), cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}

	if v, ok := os.LookupEnv(EnvBaseURL); ok && v != "" {
		cfg.Portal.BaseURL = v
	}
	if v, ok := os.LookupEnv(EnvToken); ok && v != "" {
		cfg.Portal.Token = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var envPattern = regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

func resolveEnv(content []byte) []byte {
	return envPattern.ReplaceAllFunc(content, func(match []byte) []byte {
		m := envPattern.FindSubmatch(match)
		if v, ok := os.LookupEnv(string(m[1])); ok {
			return []byte(v)
		}
		return m[2]
	})
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Portal.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("portal.base_url must be an http(s) URL, got %q", c.Portal.BaseURL)
	}
	if c.Portal.WSURL != "" {
		u, err := url.Parse(c.Portal.WSURL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
			return fmt.Errorf("portal.ws_url must be a ws(s) URL, got %q", c.Portal.WSURL)
		}
	}
	if c.Portal.RequestTimeout <= 0 {
		return errors.New("portal.request_timeout must be positive")
	}
	if c.Sync.ReconnectDelay <= 0 {
		return errors.New("sync.reconnect_delay must be positive")
	}
	if c.Sync.PollInterval <= 0 {
		return errors.New("sync.poll_interval must be positive")
	}
	if c.Sync.HeartbeatInterval <= 0 {
		return errors.New("sync.heartbeat_interval must be positive")
	}
	if c.Sync.ChatCapacity <= 0 || c.Sync.AlertCapacity <= 0 {
		return errors.New("sync.chat_capacity and sync.alert_capacity must be positive")
	}
	switch strings.ToLower(c.Logger.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logger.level %q is not one of debug, info, warn, error", c.Logger.Level)
	}
	switch c.Logger.Output {
	case "", "stdout", "stderr":
	case "file":
		if c.Logger.FilePath == "" {
			return errors.New("logger.file_path is required when logger.output is file")
		}
	default:
		return fmt.Errorf("logger.output %q is not one of stdout, stderr, file", c.Logger.Output)
	}
	return nil
}
