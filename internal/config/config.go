// Package config provides configuration for the sqlog binaries. The
// library core takes its parameters directly; this package exists so
// the binaries share one file/env/flag resolution order.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sqlog/sqlog/pkg/rotation"
	"github.com/sqlog/sqlog/pkg/types"
)

// Config holds the configuration for a sqlog binary.
type Config struct {
	// Database is the fixed storage file path. Ignored when a rotation
	// template is set.
	Database string `json:"database" yaml:"database"`

	// Rotate configures the rotating target
	Rotate RotateConfig `json:"rotate" yaml:"rotate"`

	// Level is the minimum severity name (default INFO)
	Level string `json:"level" yaml:"level"`

	// DeadLetter configures the fallback journal for failed emits
	DeadLetter DeadLetterConfig `json:"dead_letter" yaml:"dead_letter"`
}

// RotateConfig holds the rotating-target configuration.
type RotateConfig struct {
	// Template is the base storage-path template (stem + optional
	// extension). Empty means the fixed target is used.
	Template string `json:"template" yaml:"template"`

	// Interval is the calendar granularity: year, month, day, hour,
	// minute, or none.
	Interval string `json:"interval" yaml:"interval"`
}

// DeadLetterConfig holds the dead-letter journal configuration.
type DeadLetterConfig struct {
	// Dir is the journal directory. Empty disables the journal and
	// failed emits are reported on the process log only.
	Dir string `json:"dir" yaml:"dir"`

	// MaxSegmentSize is the size in bytes past which the journal rolls
	// to a new segment file.
	MaxSegmentSize int64 `json:"max_segment_size" yaml:"max_segment_size"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Database: "./logs.sqlite3",
		Level:    types.DefaultLevel.String(),
		Rotate: RotateConfig{
			Interval: string(rotation.IntervalNone),
		},
		DeadLetter: DeadLetterConfig{
			MaxSegmentSize: 4 << 20,
		},
	}
}

// Rotating reports whether the rotating target is configured.
func (c *Config) Rotating() bool {
	return c.Rotate.Template != ""
}

// MinLevel parses the configured severity threshold. Call Validate
// first; MinLevel falls back to the default on a malformed name.
func (c *Config) MinLevel() types.Level {
	level, err := types.ParseLevel(c.Level)
	if err != nil {
		return types.DefaultLevel
	}
	return level
}

// Interval parses the configured rotation interval. Call Validate
// first; Interval falls back to none on a malformed name.
func (c *Config) Interval() rotation.Interval {
	iv, err := rotation.ParseInterval(c.Rotate.Interval)
	if err != nil {
		return rotation.IntervalNone
	}
	return iv
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := types.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid level: %w", err)
	}

	if c.Rotating() {
		if _, err := rotation.ParseInterval(c.Rotate.Interval); err != nil {
			return err
		}
	} else if c.Database == "" {
		return fmt.Errorf("database is required when no rotation template is set")
	}

	if c.DeadLetter.Dir != "" && c.DeadLetter.MaxSegmentSize <= 0 {
		return fmt.Errorf("dead_letter.max_segment_size must be positive, got %d", c.DeadLetter.MaxSegmentSize)
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv overlays configuration from environment variables.
// Environment variables use the SQLOG_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("SQLOG_DATABASE"); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv("SQLOG_ROTATE_TEMPLATE"); v != "" {
		cfg.Rotate.Template = v
	}
	if v := os.Getenv("SQLOG_ROTATE_INTERVAL"); v != "" {
		cfg.Rotate.Interval = v
	}
	if v := os.Getenv("SQLOG_LEVEL"); v != "" {
		cfg.Level = v
	}
	if v := os.Getenv("SQLOG_DEADLETTER_DIR"); v != "" {
		cfg.DeadLetter.Dir = v
	}
	if v := os.Getenv("SQLOG_DEADLETTER_MAX_SEGMENT_SIZE"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.DeadLetter.MaxSegmentSize = size
		}
	}
}
