// Package config loads and validates the engine configuration.
//
// Values are merged from three layers, in order of precedence:
// environment variables, an optional JSON file, and built-in defaults.
// The host shell calls [Load] once at startup and passes the resulting
// *Config to the engine constructor.
package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Config is the top-level configuration container for the obsync engine.
// It aggregates all sub-configurations and is populated by merging values
// from environment variables and an optional JSON file.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type Config struct {
	// App holds replica identity and logging settings.
	App App `envPrefix:"OBSYNC_APP_" json:"app,omitempty"`

	// Store holds the version-store backend selection and connection
	// settings.
	Store Store `envPrefix:"OBSYNC_STORE_" json:"store,omitempty"`

	// Sync holds reconciliation-pass tuning: worker count, background
	// interval, and the merge heuristics the spec leaves configurable.
	Sync Sync `envPrefix:"OBSYNC_SYNC_" json:"sync,omitempty"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged underneath the values
	// already loaded from environment variables.
	// Populated via the OBSYNC_CONFIG environment variable.
	JSONFilePath string `env:"OBSYNC_CONFIG" json:"-"`
}

// App holds replica identity and logging settings.
type App struct {
	// LocalReplicaID identifies this device's vault copy in version
	// records. Must be stable across restarts.
	LocalReplicaID string `env:"LOCAL_REPLICA_ID" json:"local_replica_id"`

	// RemoteReplicaID identifies the peer replica being reconciled
	// against.
	RemoteReplicaID string `env:"REMOTE_REPLICA_ID" json:"remote_replica_id"`

	// LogPath, when non-empty, redirects engine logs to a file instead of
	// stdout.
	LogPath string `env:"LOG_PATH" json:"log_path"`
}

// Store selects and configures the version-store backend.
type Store struct {
	// Driver is one of "sqlite", "postgres", or "memory".
	Driver string `env:"DRIVER" json:"driver"`

	// DSN is the backend connection string: a file path for sqlite, a
	// connection URI for postgres, ignored for memory.
	DSN string `env:"DSN" json:"dsn"`
}

// Sync holds reconciliation tuning parameters. The two thresholds are the
// merge heuristics the engine deliberately exposes as configuration rather
// than constants.
type Sync struct {
	// Workers is the size of the per-pass document worker pool.
	Workers int `env:"WORKERS" json:"workers"`

	// Interval is the period of the optional background sync job.
	Interval Duration `env:"INTERVAL" json:"interval"`

	// BlockMatchThreshold is the minimum content similarity (0..1) for two
	// blocks to be considered the same block across edits.
	BlockMatchThreshold float64 `env:"BLOCK_MATCH_THRESHOLD" json:"block_match_threshold"`

	// DeleteEditThreshold is the minimum edit magnitude (0..1, measured
	// against the common ancestor) for a modification to survive a
	// concurrent deletion of the same block.
	DeleteEditThreshold float64 `env:"DELETE_EDIT_THRESHOLD" json:"delete_edit_threshold"`

	// MaxDocumentBytes is the fingerprinting size ceiling. Content larger
	// than this is reported as a per-document failure, never truncated.
	MaxDocumentBytes int64 `env:"MAX_DOCUMENT_BYTES" json:"max_document_bytes"`
}

// Default configuration values, merged in as the lowest-precedence layer.
const (
	DefaultWorkers             = 4
	DefaultInterval            = 5 * time.Minute
	DefaultBlockMatchThreshold = 0.60
	DefaultDeleteEditThreshold = 0.35
	DefaultMaxDocumentBytes    = 64 << 20 // 64 MiB
)

// defaults returns the built-in configuration layer.
func defaults() *Config {
	return &Config{
		Store: Store{
			Driver: "sqlite",
			DSN:    "obsync.db",
		},
		Sync: Sync{
			Workers:             DefaultWorkers,
			Interval:            Duration(DefaultInterval),
			BlockMatchThreshold: DefaultBlockMatchThreshold,
			DeleteEditThreshold: DefaultDeleteEditThreshold,
			MaxDocumentBytes:    DefaultMaxDocumentBytes,
		},
	}
}

// Load builds the final configuration: environment variables first, then
// the optional JSON file named by OBSYNC_CONFIG, then defaults to fill any
// remaining gaps. The merged result is validated before being returned.
func Load() (*Config, error) {
	return newConfigBuilder().
		withEnv().
		withJSON().
		withDefaults().
		build()
}

// Duration wraps time.Duration so that JSON config files can use the
// human-readable "5m" / "1h30m" syntax instead of nanosecond integers.
type Duration time.Duration

// UnmarshalJSON accepts either a duration string ("90s") or a bare number
// of nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		parsed, err := time.ParseDuration(asString)
		if err != nil {
			return fmt.Errorf("error parsing duration %q: %w", asString, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var asNumber int64
	if err := json.Unmarshal(data, &asNumber); err != nil {
		return fmt.Errorf("error parsing duration: %w", err)
	}
	*d = Duration(asNumber)
	return nil
}

// MarshalJSON renders the duration in the same string syntax UnmarshalJSON
// accepts.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalText lets caarlos0/env parse duration strings from environment
// variables.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("error parsing duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}
