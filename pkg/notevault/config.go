package notevault

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/notevault/notevault/pkg/storage"
)

// Config holds application configuration. Values come from three layers,
// each overriding the previous: built-in defaults, an optional YAML file,
// and NOTEVAULT_* environment variables.
type Config struct {
	ServerPort string `yaml:"port"`
	LogLevel   string `yaml:"logLevel"`
	LogPath    string `yaml:"logPath"`

	Storage storage.Config `yaml:"storage"`
}

// envConfig mirrors the environment overrides. Empty values leave the
// corresponding Config field untouched.
type envConfig struct {
	Port     string `env:"NOTEVAULT_PORT"`
	LogLevel string `env:"NOTEVAULT_LOG_LEVEL"`
	LogPath  string `env:"NOTEVAULT_LOG_PATH"`

	StorageType string `env:"NOTEVAULT_STORAGE_TYPE"`
	LocalPath   string `env:"NOTEVAULT_LOCAL_PATH"`
	DataDir     string `env:"NOTEVAULT_DATA_DIR"`

	WebDAVURL      string `env:"NOTEVAULT_WEBDAV_URL"`
	WebDAVUsername string `env:"NOTEVAULT_WEBDAV_USERNAME"`
	WebDAVPassword string `env:"NOTEVAULT_WEBDAV_PASSWORD"`
}

// DefaultConfig returns the configuration used when no file and no
// environment overrides are present: the embedded kv store on port 8080.
func DefaultConfig() *Config {
	return &Config{
		ServerPort: "8080",
		LogLevel:   "info",
		Storage:    storage.Config{Type: storage.KindKV},
	}
}

// LoadConfig builds the effective configuration. The path may be empty, in
// which case only defaults and environment variables apply; a non-empty
// path must exist and parse.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	var overrides envConfig
	if err := env.Parse(&overrides); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.apply(overrides)

	if err := cfg.Storage.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) apply(e envConfig) {
	if e.Port != "" {
		c.ServerPort = e.Port
	}
	if e.LogLevel != "" {
		c.LogLevel = e.LogLevel
	}
	if e.LogPath != "" {
		c.LogPath = e.LogPath
	}
	if e.StorageType != "" {
		c.Storage.Type = storage.Kind(e.StorageType)
	}
	if e.LocalPath != "" {
		c.Storage.Path = e.LocalPath
	}
	if e.DataDir != "" {
		c.Storage.DataDir = e.DataDir
	}
	if e.WebDAVURL != "" || e.WebDAVUsername != "" || e.WebDAVPassword != "" {
		if c.Storage.WebDAV == nil {
			c.Storage.WebDAV = &storage.WebDAVConfig{Enabled: true}
		}
		if e.WebDAVURL != "" {
			c.Storage.WebDAV.URL = e.WebDAVURL
		}
		if e.WebDAVUsername != "" {
			c.Storage.WebDAV.Username = e.WebDAVUsername
		}
		if e.WebDAVPassword != "" {
			c.Storage.WebDAV.Password = e.WebDAVPassword
		}
	}
}
