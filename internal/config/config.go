package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the click relay.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Meta     MetaConfig     `yaml:"meta"`
	CORS     CORSConfig     `yaml:"cors"`
	Abuse    AbuseConfig    `yaml:"abuse"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
	IdleTimeoutSeconds  int    `yaml:"idle_timeout_seconds"`
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// MetaConfig holds Meta Conversions API credentials. Missing credentials are
// a warning at startup, never a request failure: the relay persists and
// redirects regardless.
type MetaConfig struct {
	PixelID          string `yaml:"pixel_id"`
	AccessToken      string `yaml:"access_token"`
	TestEventCode    string `yaml:"test_event_code"`
	GraphBaseURL     string `yaml:"graph_base_url"`
	GraphVersion     string `yaml:"graph_version"`
	DefaultSourceURL string `yaml:"default_source_url"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
}

// Configured reports whether conversion dispatch can run at all.
func (m MetaConfig) Configured() bool {
	return m.PixelID != "" && m.AccessToken != ""
}

// CORSConfig holds the cross-origin allow-list for the smart-link pages.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// AbuseConfig holds the admission-filter windows and bot signature overrides.
type AbuseConfig struct {
	RateLimitWindowMillis int      `yaml:"rate_limit_window_ms"`
	DedupWindowSeconds    int      `yaml:"dedup_window_seconds"`
	BotPatterns           []string `yaml:"bot_patterns"`
}

// RateLimitWindow returns the per-IP admission window as a duration.
func (a AbuseConfig) RateLimitWindow() time.Duration {
	return time.Duration(a.RateLimitWindowMillis) * time.Millisecond
}

// DedupWindow returns the duplicate-click suppression window as a duration.
func (a AbuseConfig) DedupWindow() time.Duration {
	return time.Duration(a.DedupWindowSeconds) * time.Second
}

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 5
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 10
	}
	if c.Server.IdleTimeoutSeconds == 0 {
		c.Server.IdleTimeoutSeconds = 120
	}
	if c.Meta.GraphBaseURL == "" {
		c.Meta.GraphBaseURL = "https://graph.facebook.com"
	}
	if c.Meta.GraphVersion == "" {
		c.Meta.GraphVersion = "v18.0"
	}
	if c.Meta.TimeoutSeconds == 0 {
		c.Meta.TimeoutSeconds = 5
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if c.Abuse.RateLimitWindowMillis == 0 {
		c.Abuse.RateLimitWindowMillis = 1000
	}
	if c.Abuse.DedupWindowSeconds == 0 {
		c.Abuse.DedupWindowSeconds = 10
	}
}

// LoadFromEnv loads configuration from a YAML file with environment variable
// overrides. A .env file in the working directory is read first if present.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if host := os.Getenv("SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if v := os.Getenv("META_PIXEL_ID"); v != "" {
		cfg.Meta.PixelID = v
	}
	if v := os.Getenv("META_CAPI_TOKEN"); v != "" {
		cfg.Meta.AccessToken = v
	}
	if v := os.Getenv("META_TEST_EVENT_CODE"); v != "" {
		cfg.Meta.TestEventCode = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORS.AllowedOrigins = origins
	}

	return cfg, nil
}

// Validate checks that required fields are set and windows are sane.
// Meta credentials are intentionally not required here.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required (or set DATABASE_URL)")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Abuse.RateLimitWindowMillis < 0 {
		return fmt.Errorf("abuse.rate_limit_window_ms must not be negative")
	}
	if c.Abuse.DedupWindowSeconds < 0 {
		return fmt.Errorf("abuse.dedup_window_seconds must not be negative")
	}
	return nil
}
