// ABOUTME: Configuration loading and parsing for bot-console
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/2389/bot-console/internal/profile"
	"github.com/2389/bot-console/internal/webhook"
)

// DBPathEnv overrides database.path when set.
const DBPathEnv = "BOT_CONSOLE_DB_PATH"

// Config represents the complete bot-console configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Tailscale TailscaleConfig `yaml:"tailscale" toml:"tailscale"`
	Database  DatabaseConfig  `yaml:"database" toml:"database"`
	Auth      AuthConfig      `yaml:"auth" toml:"auth"`
	Webhook   WebhookConfig   `yaml:"webhook" toml:"webhook"`
	Prompts   PromptsConfig   `yaml:"prompts" toml:"prompts"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics" toml:"metrics"`
	WebAdmin  WebAdminConfig  `yaml:"webadmin" toml:"webadmin"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`
}

// TailscaleConfig holds Tailscale tsnet configuration
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Hostname  string `yaml:"hostname" toml:"hostname"`
	AuthKey   string `yaml:"auth_key" toml:"auth_key"`
	StateDir  string `yaml:"state_dir" toml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral" toml:"ephemeral"`
	// HTTPS serves on :443 with certificates provisioned by Tailscale.
	HTTPS bool `yaml:"https" toml:"https"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// AuthConfig holds admin authentication configuration
type AuthConfig struct {
	// AdminPassword is compared in plaintext. Ignored when AdminPasswordHash is set.
	AdminPassword string `yaml:"admin_password" toml:"admin_password"`
	// AdminPasswordHash is a bcrypt hash (see `bot-console hash`).
	AdminPasswordHash string `yaml:"admin_password_hash" toml:"admin_password_hash"`
	// SessionSecret signs session cookies. Random per process when empty.
	SessionSecret string `yaml:"session_secret" toml:"session_secret"`

	SessionTTL    time.Duration `yaml:"-" toml:"-"`
	SessionTTLRaw string        `yaml:"session_ttl" toml:"session_ttl"`
}

// WebhookConfig holds the backend endpoints
type WebhookConfig struct {
	ListURL   string `yaml:"list_url" toml:"list_url"`
	DataURL   string `yaml:"data_url" toml:"data_url"`
	UpdateURL string `yaml:"update_url" toml:"update_url"`

	Timeout    time.Duration `yaml:"-" toml:"-"`
	TimeoutRaw string        `yaml:"timeout" toml:"timeout"`
}

// PromptsConfig holds the prompts new bot users start with
type PromptsConfig struct {
	Text  string `yaml:"text" toml:"text"`
	Image string `yaml:"image" toml:"image"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path"`
}

// WebAdminConfig holds web admin UI configuration
type WebAdminConfig struct {
	// BaseURL is the external URL of the console, used in startup logs.
	// If not set, it's derived from server.http_addr or the tailscale hostname.
	BaseURL string `yaml:"base_url" toml:"base_url"`
}

// Defaults returns a configuration that runs without any file.
func Defaults() *Config {
	return &Config{
		Server:   ServerConfig{HTTPAddr: "127.0.0.1:8080"},
		Database: DatabaseConfig{Path: defaultDBPath()},
		Auth: AuthConfig{
			SessionTTLRaw: "12h",
			SessionTTL:    12 * time.Hour,
		},
		Webhook: WebhookConfig{
			ListURL:    webhook.DefaultListURL,
			DataURL:    webhook.DefaultDataURL,
			UpdateURL:  webhook.DefaultUpdateURL,
			TimeoutRaw: webhook.DefaultTimeout.String(),
			Timeout:    webhook.DefaultTimeout,
		},
		Prompts: PromptsConfig{
			Text:  profile.DefaultTextPrompt,
			Image: profile.DefaultImagePrompt,
		},
		Tailscale: TailscaleConfig{Hostname: "bot-console"},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
		Metrics:   MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func defaultDBPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "bot-console.db"
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "bot-console", "console.db")
}

// Load reads a configuration file from the given path and returns a parsed
// Config layered over Defaults. Files ending in .toml are decoded as TOML,
// everything else as YAML. Environment variables in the format ${VAR_NAME}
// are expanded. Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw content
	expanded := expandEnvVars(string(data))

	cfg := Defaults()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	return finish(cfg)
}

// LoadOrDefault is Load, except that a missing file yields Defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return finish(Defaults())
	}
	return cfg, err
}

func finish(cfg *Config) (*Config, error) {
	if p := os.Getenv(DBPathEnv); p != "" {
		cfg.Database.Path = p
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	// Server address is required unless Tailscale is enabled
	if !c.Tailscale.Enabled && c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required (or enable tailscale)")
	}

	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	endpoints := []struct{ name, raw string }{
		{"webhook.list_url", c.Webhook.ListURL},
		{"webhook.data_url", c.Webhook.DataURL},
		{"webhook.update_url", c.Webhook.UpdateURL},
	}
	for _, ep := range endpoints {
		if err := validateEndpoint(ep.raw); err != nil {
			return fmt.Errorf("%s: %w", ep.name, err)
		}
	}

	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl must be positive")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}

	return nil
}

func validateEndpoint(raw string) error {
	if raw == "" {
		return fmt.Errorf("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must be an http or https URL")
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Auth.SessionTTLRaw != "" {
		cfg.Auth.SessionTTL, err = time.ParseDuration(cfg.Auth.SessionTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing session_ttl %q: %w", cfg.Auth.SessionTTLRaw, err)
		}
	}

	if cfg.Webhook.TimeoutRaw != "" {
		cfg.Webhook.Timeout, err = time.ParseDuration(cfg.Webhook.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing webhook timeout %q: %w", cfg.Webhook.TimeoutRaw, err)
		}
	}

	return nil
}

// PromptDefaults returns the prompt seed for new users.
func (c *Config) PromptDefaults() profile.Defaults {
	return profile.Defaults{TextPrompt: c.Prompts.Text, ImagePrompt: c.Prompts.Image}
}

// Endpoints returns the webhook endpoints.
func (c *Config) Endpoints() webhook.Endpoints {
	return webhook.Endpoints{List: c.Webhook.ListURL, Data: c.Webhook.DataURL, Update: c.Webhook.UpdateURL}
}
