package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFastQueue()
	c.normalizeFill()
	c.Metrics.Bind = strings.TrimSpace(c.Metrics.Bind)
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.Database) == "" {
		c.Paths.Database = filepath.Join(c.Paths.DataDir, defaultDatabaseName)
	}
	if c.Paths.Database, err = expandPath(c.Paths.Database); err != nil {
		return fmt.Errorf("paths.database: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeFastQueue() {
	c.FastQueue.Backend = strings.ToLower(strings.TrimSpace(c.FastQueue.Backend))
	if c.FastQueue.Backend == "" {
		c.FastQueue.Backend = BackendMemory
	}
	if value, ok := os.LookupEnv("LABELQ_ETCD_ENDPOINTS"); ok && strings.TrimSpace(value) != "" {
		c.FastQueue.EtcdEndpoints = strings.Split(value, ",")
	}
	endpoints := c.FastQueue.EtcdEndpoints[:0]
	for _, endpoint := range c.FastQueue.EtcdEndpoints {
		if trimmed := strings.TrimSpace(endpoint); trimmed != "" {
			endpoints = append(endpoints, trimmed)
		}
	}
	c.FastQueue.EtcdEndpoints = endpoints
	c.FastQueue.EtcdPrefix = strings.TrimSpace(c.FastQueue.EtcdPrefix)
	if c.FastQueue.EtcdPrefix == "" {
		c.FastQueue.EtcdPrefix = defaultEtcdPrefix
	}
	if !strings.HasSuffix(c.FastQueue.EtcdPrefix, "/") {
		c.FastQueue.EtcdPrefix += "/"
	}
	if c.FastQueue.DialTimeoutSeconds <= 0 {
		c.FastQueue.DialTimeoutSeconds = defaultDialTimeoutSeconds
	}
}

func (c *Config) normalizeFill() {
	c.Fill.ClaimMode = strings.ToLower(strings.TrimSpace(c.Fill.ClaimMode))
	if c.Fill.ClaimMode == "" {
		c.Fill.ClaimMode = ClaimBaseline
	}
	if c.Fill.RebuildConcurrency <= 0 {
		c.Fill.RebuildConcurrency = defaultRebuildConcurrency
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
