package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tcash-app/tcash/internal/storage"
)

// DefaultAPIBaseURL is the hosted wallet API.
const DefaultAPIBaseURL = "https://tcash-api.onrender.com/api"

// Environment overrides.
const (
	EnvAPIURL   = "TCASH_API_URL"
	EnvAuthURL  = "SUPABASE_URL"
	EnvAnonKey  = "SUPABASE_ANON_KEY"
	EnvLogLevel = "TCASH_LOG_LEVEL"
)

// ErrMissingSetting marks a required setting that has no value.
var ErrMissingSetting = errors.New("missing setting")

// Config represents the top-level tcash.yaml configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Auth    AuthConfig    `yaml:"auth"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// APIConfig locates the wallet API.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// AuthConfig locates the auth service.
type AuthConfig struct {
	URL            string `yaml:"url"`
	AnonKey        string `yaml:"anon_key"`
	AutoRefresh    bool   `yaml:"auto_refresh"`
	PersistSession bool   `yaml:"persist_session"`
}

// StorageConfig selects where the session is kept.
type StorageConfig struct {
	Driver string `yaml:"driver"` // file, sqlite or memory
	Path   string `yaml:"path,omitempty"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads a tcash.yaml file from disk. Keys absent from the file keep
// their Default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file, creating its directory.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults. Auth settings have no
// default and must come from the file or the environment.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: DefaultAPIBaseURL,
			Timeout: 15 * time.Second,
		},
		Auth: AuthConfig{
			AutoRefresh:    true,
			PersistSession: true,
		},
		Storage: StorageConfig{
			Driver: storage.DriverFile,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// ApplyEnv overrides settings from the environment. lookup is os.LookupEnv
// outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIURL); ok && v != "" {
		c.API.BaseURL = v
	}
	if v, ok := lookup(EnvAuthURL); ok && v != "" {
		c.Auth.URL = v
	}
	if v, ok := lookup(EnvAnonKey); ok && v != "" {
		c.Auth.AnonKey = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
}

// Validate reports every missing required setting.
func (c *Config) Validate() error {
	var errs []error
	if c.API.BaseURL == "" {
		errs = append(errs, fmt.Errorf("%w: api.base_url (or %s)", ErrMissingSetting, EnvAPIURL))
	}
	if c.Auth.URL == "" {
		errs = append(errs, fmt.Errorf("%w: auth.url (or %s)", ErrMissingSetting, EnvAuthURL))
	}
	if c.Auth.AnonKey == "" {
		errs = append(errs, fmt.Errorf("%w: auth.anon_key (or %s)", ErrMissingSetting, EnvAnonKey))
	}
	switch c.Storage.Driver {
	case "", storage.DriverFile, storage.DriverSQLite, storage.DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	return errors.Join(errs...)
}

// StorageDriver is the driver actually used: memory when sessions are not persisted.
func (c *Config) StorageDriver() string {
	if !c.Auth.PersistSession {
		return storage.DriverMemory
	}
	return c.Storage.Driver
}

// StoragePath resolves the session store path, next to the config file by default.
func (c *Config) StoragePath(configPath string) string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	return storage.DefaultPath(filepath.Dir(configPath), c.StorageDriver())
}

// DefaultPath returns $XDG_CONFIG_HOME/tcash/tcash.yaml, falling back to the
// user config directory.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		dir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("locating config directory: %w", err)
		}
	}
	return filepath.Join(dir, "tcash", "tcash.yaml"), nil
}
