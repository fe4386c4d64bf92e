package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *ReplayConfig) Validate() error {
	if c.Input.Path == "" {
		return errors.New("input.path is required")
	}

	switch c.Input.Format {
	case "auto", "raw", "lz4":
	default:
		return fmt.Errorf("input.format must be auto, raw, or lz4, got %q", c.Input.Format)
	}

	if c.Archive.Enabled {
		if err := c.Archive.Database.validate("archive.database"); err != nil {
			return err
		}
		if c.Archive.Writers.BatchSize < 1 {
			return errors.New("archive.writers.batch_size must be >= 1")
		}
		if c.Archive.Writers.BufferSize < 1 {
			return errors.New("archive.writers.buffer_size must be >= 1")
		}
		if c.Archive.Writers.FlushInterval <= 0 {
			return errors.New("archive.writers.flush_interval must be positive")
		}
	}

	if c.Publish.Enabled && c.Publish.Addr == "" {
		return errors.New("publish.addr is required when publish is enabled")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn, or error, got %q", c.Log.Level)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
