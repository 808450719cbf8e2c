package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Fast queue backends.
const (
	BackendMemory = "memory"
	BackendEtcd   = "etcd"
)

// Fill claim modes.
const (
	// ClaimBaseline reads eligibility without locking; concurrent fills over one
	// project may select the same data.
	ClaimBaseline = "baseline"
	// ClaimExclusive serializes fills and re-checks eligibility at insert time.
	ClaimExclusive = "exclusive"
)

// Paths contains directory and database location configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	Database string `toml:"database"`
	LogDir   string `toml:"log_dir"`
}

// FastQueue selects and configures the fast list store that mirrors queue membership.
type FastQueue struct {
	Backend            string   `toml:"backend"`
	EtcdEndpoints      []string `toml:"etcd_endpoints"`
	EtcdPrefix         string   `toml:"etcd_prefix"`
	DialTimeoutSeconds int      `toml:"dial_timeout_seconds"`
}

// Fill contains configuration for queue filling.
type Fill struct {
	ClaimMode string `toml:"claim_mode"`
	// Seed for the sampling random source. Zero seeds from the OS.
	Seed               uint64 `toml:"seed"`
	RebuildConcurrency int    `toml:"rebuild_concurrency"`
}

// Metrics contains configuration for the Prometheus scrape endpoint.
type Metrics struct {
	Bind string `toml:"bind"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for labelq.
//
// Configuration sections by subsystem:
//   - Paths: data directory, SQLite database and log locations
//   - FastQueue: memory or etcd list store backing queue pops
//   - Fill: claim mode and sampling seed
//   - Metrics: optional Prometheus bind address for long-running commands
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	FastQueue FastQueue `toml:"fast_queue"`
	Fill      Fill      `toml:"fill"`
	Metrics   Metrics   `toml:"metrics"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/labelq/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("labelq.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, filepath.Dir(c.Paths.Database)} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FillLockPath returns the advisory lock file shared by every process filling
// queues in the configured database.
func (c *Config) FillLockPath() string {
	return filepath.Join(c.Paths.DataDir, "fill.lock")
}

// DialTimeout returns the fast queue dial timeout as a duration.
func (c *Config) DialTimeout() time.Duration {
	return time.Duration(c.FastQueue.DialTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
