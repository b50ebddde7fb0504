package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given
const DefaultPath = "tinyimg.yml"

// EnvPrefix prefixes every environment override
const EnvPrefix = "TINYIMG_"

// Config holds the tunables of a compression batch
type Config struct {
	ChunkSize      int           `yaml:"chunk_size"`
	ChunkPause     time.Duration `yaml:"chunk_pause"`
	MaxDimension   int           `yaml:"max_dimension"`
	Quality        int           `yaml:"quality"`
	MaxSizeKB      int           `yaml:"max_size_kb"`
	KeepResolution bool          `yaml:"keep_resolution"`
	MeasureQuality bool          `yaml:"measure_quality"`
	OutDir         string        `yaml:"out_dir"`
	LogLevel       string        `yaml:"log_level"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		ChunkSize:      4,
		ChunkPause:     100 * time.Millisecond,
		MaxDimension:   1080,
		Quality:        80,
		KeepResolution: true,
		OutDir:         "tinyimg-out",
		LogLevel:       "info",
	}
}

// Load reads a YAML config file on top of the defaults. A missing file is
// not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv loads variables from a .env file if one exists. Variables that
// are already set win over the file.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// ApplyEnv overrides fields from TINYIMG_* variables using lookup.
// A nil lookup reads the process environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	ints := map[string]*int{
		"CHUNK_SIZE":    &c.ChunkSize,
		"MAX_DIMENSION": &c.MaxDimension,
		"QUALITY":       &c.Quality,
		"MAX_SIZE_KB":   &c.MaxSizeKB,
	}
	for key, dst := range ints {
		v, ok := lookup(EnvPrefix + key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
	}

	bools := map[string]*bool{
		"KEEP_RESOLUTION": &c.KeepResolution,
		"MEASURE_QUALITY": &c.MeasureQuality,
	}
	for key, dst := range bools {
		v, ok := lookup(EnvPrefix + key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = b
	}

	if v, ok := lookup(EnvPrefix + "CHUNK_PAUSE"); ok && strings.TrimSpace(v) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sCHUNK_PAUSE: %w", EnvPrefix, err)
		}
		c.ChunkPause = d
	}
	if v, ok := lookup(EnvPrefix + "OUT_DIR"); ok && strings.TrimSpace(v) != "" {
		c.OutDir = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvPrefix + "LOG_LEVEL"); ok && strings.TrimSpace(v) != "" {
		c.LogLevel = strings.TrimSpace(v)
	}
	return nil
}

// Validate checks the value ranges
func (c *Config) Validate() error {
	var errs []error
	if c.ChunkSize < 1 {
		errs = append(errs, fmt.Errorf("chunk_size must be at least 1, got %d", c.ChunkSize))
	}
	if c.ChunkPause < 0 {
		errs = append(errs, fmt.Errorf("chunk_pause must not be negative, got %s", c.ChunkPause))
	}
	if c.MaxDimension < 1 {
		errs = append(errs, fmt.Errorf("max_dimension must be at least 1, got %d", c.MaxDimension))
	}
	if c.Quality < 1 || c.Quality > 100 {
		errs = append(errs, fmt.Errorf("quality must be within 1-100, got %d", c.Quality))
	}
	if c.MaxSizeKB < 0 {
		errs = append(errs, fmt.Errorf("max_size_kb must not be negative, got %d", c.MaxSizeKB))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error")
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

// MaxSizeBytes converts MaxSizeKB to bytes
func (c *Config) MaxSizeBytes() int64 {
	return int64(c.MaxSizeKB) * 1024
}
