package config

import "errors"

// Sentinel errors returned by [Config.validate]. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrInvalidReplicaConfigs is returned when the local or remote
	// replica ID is missing, or when both name the same replica.
	ErrInvalidReplicaConfigs = errors.New("invalid replica configs")

	// ErrInvalidStoreConfigs is returned when the store driver is unknown
	// or a required DSN is missing.
	ErrInvalidStoreConfigs = errors.New("invalid store configs")

	// ErrInvalidSyncConfigs is returned when a sync tuning parameter is
	// out of range (non-positive workers/interval, thresholds outside
	// (0, 1], non-positive size ceiling).
	ErrInvalidSyncConfigs = errors.New("invalid sync configs")
)
