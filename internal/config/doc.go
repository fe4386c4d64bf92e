// Package config loads and validates replay tool configuration.
//
// Configuration is YAML with ${VAR} environment expansion. Loading is
// split into Load (parse), LoadWithDefaults (fill optional fields), and
// LoadAndValidate (reject inconsistent values), so tests can exercise
// each stage.
package config
