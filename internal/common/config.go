package common

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Storage   StorageConfig   `toml:"storage"`
	History   HistoryConfig   `toml:"history"`
	Viewer    ViewerConfig    `toml:"viewer"`
	Thumbnail ThumbnailConfig `toml:"thumbnail"`
	Logging   LoggingConfig   `toml:"logging"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
	Bolt   BoltConfig   `toml:"bolt"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path string `toml:"path"` // Database directory path
}

// BoltConfig represents the key-value fallback database configuration
type BoltConfig struct {
	Path string `toml:"path"` // Database file path
}

type HistoryConfig struct {
	Capacity int `toml:"capacity"` // Max retained entries before LRU eviction
}

type ViewerConfig struct {
	MaxFileSize int64   `toml:"max_file_size"` // Max model file size in bytes
	TargetSize  float64 `toml:"target_size"`   // Normalized bounding size in world units
	Margin      float64 `toml:"margin"`        // Camera framing margin multiplier
	FOV         float64 `toml:"fov"`           // Vertical field of view in degrees
}

type ThumbnailConfig struct {
	Size int `toml:"size"` // Thumbnail edge length in pixels
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Badger: BadgerConfig{Path: "./data/history"},
			Bolt:   BoltConfig{Path: "./data/history.db"},
		},
		History: HistoryConfig{
			Capacity: 20,
		},
		Viewer: ViewerConfig{
			MaxFileSize: 100 << 20,
			TargetSize:  2.0,
			Margin:      1.25,
			FOV:         45,
		},
		Thumbnail: ThumbnailConfig{
			Size: 96,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> files in
// order -> environment. Missing files are skipped so a bare install runs on
// defaults.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if path := os.Getenv("PRISM_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}
	if path := os.Getenv("PRISM_BOLT_PATH"); path != "" {
		config.Storage.Bolt.Path = path
	}
	if capacity := os.Getenv("PRISM_HISTORY_CAPACITY"); capacity != "" {
		if n, err := strconv.Atoi(capacity); err == nil && n > 0 {
			config.History.Capacity = n
		}
	}
	if maxSize := os.Getenv("PRISM_MAX_FILE_SIZE"); maxSize != "" {
		if n, err := strconv.ParseInt(maxSize, 10, 64); err == nil && n > 0 {
			config.Viewer.MaxFileSize = n
		}
	}
	if level := os.Getenv("PRISM_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}
