// Package config resolves the configuration directory, the optional
// config.yaml inside it and TODO_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"simpletodo/internal/logging"
	"simpletodo/internal/storage"
)

const (
	// AppName is the application directory name.
	AppName = "todo"

	// ConfigFile is the optional settings file inside the config directory.
	ConfigFile = "config.yaml"

	// OAuthClientFile is the Google OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored Google OAuth token filename.
	TokenFile = "token.json"

	// DefaultNamespace is the storage slot tasks are kept under.
	DefaultNamespace = "simpleDB"

	// DefaultAddr is the listen address for the web server.
	DefaultAddr = "127.0.0.1:8080"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Namespace is the storage key the task collection lives under.
	Namespace string

	// Backend selects the storage backend (file, bolt, sqlite, nats, memory).
	Backend string

	// DataDir holds the file, bolt and sqlite data. Defaults to Dir/data.
	DataDir string

	// NATSURL and NATSBucket configure the nats backend.
	NATSURL    string
	NATSBucket string

	// Addr is the web server listen address.
	Addr string

	// Log is the diagnostic logger. Nil means discard.
	Log *logging.Logger
}

// New creates a Config with defaults for the given config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/todo or $HOME/.config/todo.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{
		Dir:        dir,
		Namespace:  DefaultNamespace,
		Backend:    storage.BackendFile,
		NATSBucket: "simpletodo",
		Addr:       DefaultAddr,
	}, nil
}

// Load is New followed by reading config.yaml and TODO_* variables.
// A missing config file is not an error.
func Load(configDir string) (*Config, error) {
	cfg, err := New(configDir)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(cfg.ConfigPath())
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TODO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("namespace", cfg.Namespace)
	v.SetDefault("backend", cfg.Backend)
	v.SetDefault("data_dir", "")
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.bucket", cfg.NATSBucket)
	v.SetDefault("serve.addr", cfg.Addr)

	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", cfg.ConfigPath(), err)
	}

	cfg.Namespace = v.GetString("namespace")
	cfg.Backend = v.GetString("backend")
	cfg.DataDir = v.GetString("data_dir")
	cfg.NATSURL = v.GetString("nats.url")
	cfg.NATSBucket = v.GetString("nats.bucket")
	cfg.Addr = v.GetString("serve.addr")
	return cfg, nil
}

// isNotExist reports whether err means the config file is absent.
func isNotExist(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, os.ErrNotExist)
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// ConfigPath returns the path to config.yaml.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// DataPath returns the directory for local storage backends.
func (c *Config) DataPath() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return filepath.Join(c.Dir, "data")
}

// Storage returns the storage backend settings.
func (c *Config) Storage() storage.Config {
	return storage.Config{
		Backend:    c.Backend,
		Dir:        c.DataPath(),
		NATSURL:    c.NATSURL,
		NATSBucket: c.NATSBucket,
	}
}

// Logger returns the configured logger, or one that discards everything.
func (c *Config) Logger() *logging.Logger {
	if c.Log == nil {
		return logging.Discard()
	}
	return c.Log
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}
