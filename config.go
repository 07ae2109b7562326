package crispsession

import "time"

// Config defines the engine's tunable surface. Zero values are filled from
// [DefaultConfig] equivalents at Build; an explicitly invalid timeout pairing
// fails Build with ErrInvalidTimeoutConfig.
type Config struct {
	Timeout TimeoutConfig
	Storage StorageConfig
	Watcher WatcherConfig
}

// TimeoutConfig governs the inactivity state machine.
type TimeoutConfig struct {
	// InactivityTimeout is the total session lifetime measured from the last
	// qualifying activity.
	InactivityTimeout time.Duration
	// WarningLead is how long before expiry the warning prompt appears.
	// Must be strictly shorter than InactivityTimeout.
	WarningLead time.Duration
	// ActivityDebounce bounds how often activity resets the clock; events
	// arriving within the window are ignored.
	ActivityDebounce time.Duration
}

// StorageConfig governs the token store key layout.
type StorageConfig struct {
	// KeyPrefix prefixes every key the engine owns ("crisp" by default).
	KeyPrefix string
	// LegacyTokenKey mirrors the access token under the older auth_token key
	// for code paths that still read it.
	LegacyTokenKey bool
}

// WatcherConfig governs the notification poller.
type WatcherConfig struct {
	// Enabled starts the watcher at Build when a NotificationSource is
	// injected.
	Enabled bool
	// PollInterval is the period between unread-count polls.
	PollInterval time.Duration
}

// DefaultConfig returns the production defaults: 10 minute inactivity
// timeout, 2 minute warning lead, 1 second activity debounce, 30 second
// notification poll.
func DefaultConfig() Config {
	return Config{
		Timeout: TimeoutConfig{
			InactivityTimeout: 10 * time.Minute,
			WarningLead:       2 * time.Minute,
			ActivityDebounce:  time.Second,
		},
		Storage: StorageConfig{
			KeyPrefix:      "crisp",
			LegacyTokenKey: true,
		},
		Watcher: WatcherConfig{
			Enabled:      true,
			PollInterval: 30 * time.Second,
		},
	}
}

func normalizeConfig(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Timeout.InactivityTimeout <= 0 {
		cfg.Timeout.InactivityTimeout = def.Timeout.InactivityTimeout
	}
	if cfg.Timeout.WarningLead <= 0 {
		cfg.Timeout.WarningLead = def.Timeout.WarningLead
	}
	if cfg.Timeout.ActivityDebounce <= 0 {
		cfg.Timeout.ActivityDebounce = def.Timeout.ActivityDebounce
	}
	if cfg.Storage.KeyPrefix == "" {
		cfg.Storage.KeyPrefix = def.Storage.KeyPrefix
	}
	if cfg.Watcher.PollInterval <= 0 {
		cfg.Watcher.PollInterval = def.Watcher.PollInterval
	}
	return cfg
}

func validateConfig(cfg Config) error {
	if cfg.Timeout.WarningLead >= cfg.Timeout.InactivityTimeout {
		return ErrInvalidTimeoutConfig
	}
	return nil
}

// storageKeys is the stable key layout derived from the configured prefix.
type storageKeys struct {
	access  string
	refresh string
	user    string
	legacy  string
}

func keysForPrefix(prefix string) storageKeys {
	return storageKeys{
		access:  prefix + ":token",
		refresh: prefix + ":refresh",
		user:    prefix + ":user",
		legacy:  prefix + ":auth_token",
	}
}

func (k storageKeys) all(includeLegacy bool) []string {
	keys := []string{k.access, k.refresh, k.user}
	if includeLegacy {
		keys = append(keys, k.legacy)
	}
	return keys
}
