// Package config loads glidewire settings from file and environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config.yaml"
	configDirName  = "glidewire"

	// DefaultScope is the OAuth scope requested when none is configured.
	DefaultScope = "useraccount"
	// DefaultTimeoutMS is the per-request timeout when none is configured.
	DefaultTimeoutMS = 30000

	defaultMaxOutputBytes = 50 * 1024
)

// Config for glidewire. Credentials come from the environment; the
// optional config file only carries the non-secret knobs.
type Config struct {
	InstanceURL    string `yaml:"instance_url"`
	ClientID       string `yaml:"-"`
	ClientSecret   string `yaml:"-"`
	Username       string `yaml:"-"`
	Password       string `yaml:"-"`
	Scope          string `yaml:"scope"`
	TimeoutMS      int    `yaml:"timeout_ms"`
	Debug          bool   `yaml:"debug"`
	MaxOutputBytes int    `yaml:"max_output_bytes"`
}

// Timeout returns the configured request timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// LoadFrom loads config from path. Missing files are not an error; the
// environment always wins over file contents.
func LoadFrom(path string) (Config, error) {
	cfg := Config{
		Scope:          DefaultScope,
		TimeoutMS:      DefaultTimeoutMS,
		MaxOutputBytes: defaultMaxOutputBytes,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Load reads the default config path (overridable via GLIDEWIRE_CONFIG)
// and the environment.
func Load() (Config, error) {
	if path, ok := os.LookupEnv("GLIDEWIRE_CONFIG"); ok {
		return LoadFrom(path)
	}
	return LoadFrom(defaultConfigPath())
}

func (c *Config) applyEnvOverrides() error {
	if v, ok := os.LookupEnv("SERVICENOW_INSTANCE_URL"); ok {
		c.InstanceURL = v
	}
	if v, ok := os.LookupEnv("SERVICENOW_CLIENT_ID"); ok {
		c.ClientID = v
	}
	if v, ok := os.LookupEnv("SERVICENOW_CLIENT_SECRET"); ok {
		c.ClientSecret = v
	}
	if v, ok := os.LookupEnv("SERVICENOW_USERNAME"); ok {
		c.Username = v
	}
	if v, ok := os.LookupEnv("SERVICENOW_PASSWORD"); ok {
		c.Password = v
	}
	if v, ok := os.LookupEnv("SERVICENOW_SCOPE"); ok {
		c.Scope = v
	}
	if v, ok := os.LookupEnv("SERVICENOW_TIMEOUT_MS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse SERVICENOW_TIMEOUT_MS: %w", err)
		}
		c.TimeoutMS = n
	}
	if v, ok := os.LookupEnv("SERVICENOW_DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse SERVICENOW_DEBUG: %w", err)
		}
		c.Debug = b
	}
	if v, ok := os.LookupEnv("GLIDEWIRE_MAX_OUTPUT_BYTES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse GLIDEWIRE_MAX_OUTPUT_BYTES: %w", err)
		}
		c.MaxOutputBytes = n
	}
	return nil
}

func (c *Config) validate() error {
	var missing []string
	if strings.TrimSpace(c.InstanceURL) == "" {
		missing = append(missing, "SERVICENOW_INSTANCE_URL")
	}
	if c.ClientID == "" {
		missing = append(missing, "SERVICENOW_CLIENT_ID")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "SERVICENOW_CLIENT_SECRET")
	}
	if c.Username == "" {
		missing = append(missing, "SERVICENOW_USERNAME")
	}
	if c.Password == "" {
		missing = append(missing, "SERVICENOW_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	c.InstanceURL = normalizeInstanceURL(c.InstanceURL)
	if _, err := url.ParseRequestURI(c.InstanceURL); err != nil {
		return fmt.Errorf("invalid instance URL %q: %w", c.InstanceURL, err)
	}
	if c.TimeoutMS <= 0 {
		return fmt.Errorf("timeout_ms must be positive, got %d", c.TimeoutMS)
	}
	if c.TimeoutMS > 600000 {
		return fmt.Errorf("timeout_ms must not exceed 600000, got %d", c.TimeoutMS)
	}
	if c.MaxOutputBytes < 0 {
		return fmt.Errorf("max_output_bytes must be non-negative, got %d", c.MaxOutputBytes)
	}

	return nil
}

func normalizeInstanceURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	return strings.TrimRight(raw, "/")
}

func defaultConfigPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, configDirName, configFileName)
}
