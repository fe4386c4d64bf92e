package config

import "time"

// ReplayConfig is the root configuration for a replay run.
type ReplayConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	Input    InputConfig    `yaml:"input"`
	Session  SessionConfig  `yaml:"session"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Publish  PublishConfig  `yaml:"publish"`
	Log      LogConfig      `yaml:"log"`
}

// InstanceConfig identifies this replay instance in logs and archive rows.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// InputConfig locates the capture to replay.
type InputConfig struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"` // auto, raw, or lz4
}

// SessionConfig holds coordinator policy knobs.
type SessionConfig struct {
	// ResetOnClear makes a Clear-flagged depth record restart the
	// snapshot-building phase. Default false: once live, stays live.
	ResetOnClear bool `yaml:"reset_on_clear"`
}

// ArchiveConfig holds the optional database persistence settings.
type ArchiveConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Database DBConfig      `yaml:"database"`
	Writers  WritersConfig `yaml:"writers"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// WritersConfig holds batch writer settings.
type WritersConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// PublishConfig holds the optional websocket broadcast settings.
type PublishConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}
