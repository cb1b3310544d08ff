package config

// validate checks that the final merged [Config] satisfies all engine
// invariants before it is used at startup.
//
// Returns nil if the configuration is valid, or a sentinel error otherwise.
func (cfg *Config) validate() error {
	if cfg.App.LocalReplicaID == "" || cfg.App.RemoteReplicaID == "" {
		return ErrInvalidReplicaConfigs
	}
	if cfg.App.LocalReplicaID == cfg.App.RemoteReplicaID {
		return ErrInvalidReplicaConfigs
	}

	switch cfg.Store.Driver {
	case "memory":
		// DSN is ignored for the in-memory backend.
	case "sqlite", "postgres":
		if cfg.Store.DSN == "" {
			return ErrInvalidStoreConfigs
		}
	default:
		return ErrInvalidStoreConfigs
	}

	if cfg.Sync.Workers <= 0 || cfg.Sync.Interval <= 0 {
		return ErrInvalidSyncConfigs
	}
	if cfg.Sync.BlockMatchThreshold <= 0 || cfg.Sync.BlockMatchThreshold > 1 {
		return ErrInvalidSyncConfigs
	}
	if cfg.Sync.DeleteEditThreshold <= 0 || cfg.Sync.DeleteEditThreshold > 1 {
		return ErrInvalidSyncConfigs
	}
	if cfg.Sync.MaxDocumentBytes <= 0 {
		return ErrInvalidSyncConfigs
	}

	return nil
}
