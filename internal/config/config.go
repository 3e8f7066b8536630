package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	appName              = "csmentor"
	defaultDataDirectory = ".csmentor"
	defaultBackendURL    = "http://localhost:8000"
)

// BackendConfig points at the Q&A service.
type BackendConfig struct {
	URL     string        `json:"url"`
	Timeout time.Duration `json:"timeout"`
}

// StorageConfig selects and locates the persistent store.
type StorageConfig struct {
	// Backend is one of "file", "sqlite", or "memory".
	Backend   string `json:"backend"`
	Directory string `json:"directory"`
}

// ServerConfig configures the HTTP API surface.
type ServerConfig struct {
	Addr string `json:"addr"`
}

// ChatConfig tunes the turn controller.
type ChatConfig struct {
	MinRevealDelay time.Duration `json:"minRevealDelay"`
	WarnBelow      float64       `json:"warnBelow"`
}

// NotificationConfig tunes the notification emitter.
type NotificationConfig struct {
	TTL time.Duration `json:"ttl"`
}

// Config is the main configuration structure for the application.
type Config struct {
	Backend       BackendConfig      `json:"backend"`
	Storage       StorageConfig      `json:"storage"`
	Server        ServerConfig       `json:"server"`
	Chat          ChatConfig         `json:"chat"`
	Notifications NotificationConfig `json:"notifications"`
	Debug         bool               `json:"debug,omitempty"`
}

// DatabasePath returns the SQLite database location for the sqlite
// storage backend.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Storage.Directory, "csmentor.db")
}

// Load initializes configuration from the config file and environment.
func Load(debug bool) (*Config, error) {
	configureViper()
	setDefaults(debug)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if cfg.Storage.Directory == "" {
		cfg.Storage.Directory = defaultDataDir()
	}
	return cfg, nil
}

// configureViper sets up viper's configuration paths and environment
// variables.
func configureViper() {
	viper.SetConfigName(fmt.Sprintf(".%s", appName))
	viper.SetConfigType("json")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(fmt.Sprintf("$XDG_CONFIG_HOME/%s", appName))
	viper.AddConfigPath(fmt.Sprintf("$HOME/.config/%s", appName))
	viper.SetEnvPrefix(strings.ToUpper(appName))
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// setDefaults configures default values for configuration options.
func setDefaults(debug bool) {
	viper.SetDefault("backend.url", defaultBackendURL)
	viper.SetDefault("backend.timeout", 30*time.Second)

	viper.SetDefault("storage.backend", "file")
	viper.SetDefault("storage.directory", "")

	viper.SetDefault("server.addr", ":8080")

	viper.SetDefault("chat.minRevealDelay", 500*time.Millisecond)
	viper.SetDefault("chat.warnBelow", 0.7)

	viper.SetDefault("notifications.ttl", 3*time.Second)

	viper.SetDefault("debug", debug)
}

// defaultDataDir places session state under the user's home directory,
// falling back to the working directory when home is unavailable.
func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return defaultDataDirectory
	}
	return filepath.Join(homeDir, defaultDataDirectory)
}
