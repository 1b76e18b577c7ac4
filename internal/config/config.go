// Package config resolves catalog directories and loads the TOML settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
)

const appName = "novel-catalog"

// Database configures the SQLite store location.
type Database struct {
	Path string `toml:"path"`
}

// Deduplicator controls the classification decision.
type Deduplicator struct {
	Enable        bool   `toml:"enable"`
	HashAlgorithm string `toml:"hash_algorithm"`

	// SimilarityThreshold is accepted but unused; scans match exact keys.
	SimilarityThreshold float64 `toml:"similarity_threshold"`
}

// Ingest sizes the ingestion worker pool.
type Ingest struct {
	Workers   int `toml:"workers"`
	QueueSize int `toml:"queue_size"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Server configures the HTTP API listener.
type Server struct {
	Bind string `toml:"bind"`
}

// Config encapsulates all configuration values for the catalog.
type Config struct {
	Database     Database     `toml:"database"`
	Deduplicator Deduplicator `toml:"deduplicator"`
	Ingest       Ingest       `toml:"ingest"`
	Logging      Logging      `toml:"logging"`
	Server       Server       `toml:"server"`
}

// GetDataDir resolves the base directory for catalog storage. CATALOG_DIR wins,
// then XDG data home, then ~/.local/share.
func GetDataDir() string {
	if explicit := os.Getenv("CATALOG_DIR"); explicit != "" {
		return explicit
	}

	xdg.Reload()

	dataHome := xdg.DataHome
	if dataHome == "" {
		home := xdg.Home
		if home == "" {
			var err error
			home, err = os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), appName)
			}
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataHome, appName)
}

// GetDBPath returns the path to the SQLite database file.
func GetDBPath() string {
	return filepath.Join(GetDataDir(), "catalog.db")
}

// DefaultConfigPath returns CATALOG_CONFIG or the XDG config location.
func DefaultConfigPath() string {
	if explicit := os.Getenv("CATALOG_CONFIG"); explicit != "" {
		return explicit
	}
	xdg.Reload()
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

// Load reads the config file at path (or the default location when empty),
// applies defaults for anything unset and validates the result. A missing file
// is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) == "" {
		path = DefaultConfigPath()
	}

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("open config: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DBPath returns the configured database path, falling back to the data dir.
func (c *Config) DBPath() string {
	if c == nil || strings.TrimSpace(c.Database.Path) == "" {
		return GetDBPath()
	}
	return c.Database.Path
}

func (c *Config) normalize() {
	c.Database.Path = expandHome(strings.TrimSpace(c.Database.Path))
	c.Deduplicator.HashAlgorithm = strings.ToLower(strings.TrimSpace(c.Deduplicator.HashAlgorithm))
	if c.Deduplicator.HashAlgorithm == "" {
		c.Deduplicator.HashAlgorithm = defaultHashAlgorithm
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Ingest.QueueSize <= 0 {
		c.Ingest.QueueSize = c.Ingest.Workers * 4
	}
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
