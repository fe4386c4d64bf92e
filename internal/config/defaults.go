package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultInputFormat   = "auto"
	DefaultDBPort        = 5432
	DefaultDBSSLMode     = "prefer"
	DefaultMaxConns      = 4
	DefaultMinConns      = 1
	DefaultBatchSize     = 1000
	DefaultFlushInterval = 1 * time.Second
	DefaultBufferSize    = 10000
	DefaultPublishAddr   = ":8080"
	DefaultLogLevel      = "info"
)

func (c *ReplayConfig) applyDefaults() {
	if c.Instance.ID == "" {
		c.Instance.ID = "replay"
	}

	if c.Input.Format == "" {
		c.Input.Format = DefaultInputFormat
	}

	if c.Archive.Enabled {
		applyDBDefaults(&c.Archive.Database)
	}
	if c.Archive.Writers.BatchSize == 0 {
		c.Archive.Writers.BatchSize = DefaultBatchSize
	}
	if c.Archive.Writers.FlushInterval == 0 {
		c.Archive.Writers.FlushInterval = DefaultFlushInterval
	}
	if c.Archive.Writers.BufferSize == 0 {
		c.Archive.Writers.BufferSize = DefaultBufferSize
	}

	if c.Publish.Addr == "" {
		c.Publish.Addr = DefaultPublishAddr
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
