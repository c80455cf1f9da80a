// ABOUTME: formlog configuration management with backend selection.
// ABOUTME: Layers defaults, a YAML file and FORMLOG_ env vars; opens the record store.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"

	"github.com/harperreed/formlog/internal/logging"
	"github.com/harperreed/formlog/internal/storage"
)

const (
	// EnvPrefix prefixes every environment override, e.g. FORMLOG_BACKEND.
	EnvPrefix = "FORMLOG_"

	// ConfigPathEnvVar overrides the config file location.
	ConfigPathEnvVar = "FORMLOG_CONFIG"

	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Config stores formlog configuration.
type Config struct {
	// Backend selects the storage engine: "badger" (default) or "sqlite".
	Backend string `koanf:"backend" yaml:"backend,omitempty" validate:"omitempty,oneof=badger sqlite"`

	// DataDir is the root directory for data storage.
	// Badger keeps its files in badger/ here; SQLite uses formlog.db.
	// Supports ~ expansion for home directory. Defaults to ~/.local/share/formlog.
	DataDir string `koanf:"data_dir" yaml:"data_dir,omitempty"`

	// LogLevel is trace, debug, info, warn, error or disabled.
	LogLevel string `koanf:"log_level" yaml:"log_level,omitempty" validate:"omitempty,oneof=trace debug info warn warning error disabled off"`

	// LogFormat is console or json.
	LogFormat string `koanf:"log_format" yaml:"log_format,omitempty" validate:"omitempty,oneof=console json"`
}

func defaultConfig() *Config {
	return &Config{
		Backend:   BackendBadger,
		LogLevel:  "warn",
		LogFormat: "console",
	}
}

var validate = validator.New()

// Validate checks field values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// GetBackend returns the configured backend, defaulting to "badger".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return BackendBadger
	}
	return c.Backend
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return DefaultDataDir()
	}
	return ExpandPath(c.DataDir)
}

// DefaultDataDir returns the default data directory following XDG spec.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "formlog")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// StorePath returns where the given backend keeps its data under dataDir.
func StorePath(backend, dataDir string) (string, error) {
	switch backend {
	case BackendBadger:
		return filepath.Join(dataDir, "badger"), nil
	case BackendSQLite:
		return filepath.Join(dataDir, "formlog.db"), nil
	default:
		return "", fmt.Errorf("unknown backend: %q", backend)
	}
}

// Opener returns the storage opener for the configured backend.
func (c *Config) Opener() (storage.Opener, error) {
	return OpenerFor(c.GetBackend(), c.GetDataDir())
}

// OpenerFor returns the storage opener for backend rooted at dataDir.
func OpenerFor(backend, dataDir string) (storage.Opener, error) {
	path, err := StorePath(backend, dataDir)
	if err != nil {
		return nil, err
	}
	if backend == BackendSQLite {
		return storage.SQLiteOpener(path), nil
	}
	return storage.BadgerOpener(path), nil
}

// OpenStore creates a Store for the configured backend. The backend itself is
// opened lazily by the Store.
func (c *Config) OpenStore(opts ...storage.Option) (*storage.Store, error) {
	opener, err := c.Opener()
	if err != nil {
		return nil, err
	}
	return storage.New(opener, opts...), nil
}

// LoggingConfig returns the logging settings.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{Level: c.LogLevel, Format: c.LogFormat}
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return ExpandPath(p)
	}
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "formlog", "config.yaml")
}

// Load reads config with precedence env > file > defaults.
// A missing config file is not an error.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	path := GetConfigPath()
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), kyaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envTransformFunc maps FORMLOG_DATA_DIR to data_dir.
func envTransformFunc(key string) string {
	return strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
}

// Save writes config to disk as YAML.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
