package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateFastQueue(); err != nil {
		return err
	}
	if err := c.validateFill(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.Database == "" {
		return errors.New("paths.database must be set")
	}
	return nil
}

func (c *Config) validateFastQueue() error {
	switch c.FastQueue.Backend {
	case BackendMemory:
		return nil
	case BackendEtcd:
		if len(c.FastQueue.EtcdEndpoints) == 0 {
			return errors.New("fast_queue.etcd_endpoints must be set when fast_queue.backend is etcd")
		}
		return nil
	default:
		return fmt.Errorf("fast_queue.backend: unsupported value %q (want %q or %q)", c.FastQueue.Backend, BackendMemory, BackendEtcd)
	}
}

func (c *Config) validateFill() error {
	switch c.Fill.ClaimMode {
	case ClaimBaseline, ClaimExclusive:
		return nil
	default:
		return fmt.Errorf("fill.claim_mode: unsupported value %q (want %q or %q)", c.Fill.ClaimMode, ClaimBaseline, ClaimExclusive)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
