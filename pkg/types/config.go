package types

import (
	"errors"
	"time"
)

// Config holds backend selection and parameters for Timeline.Attach.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// OperationTimeout bounds every store call. Zero means DefaultOperationTimeout.
	OperationTimeout time.Duration `json:"operation_timeout" yaml:"operation_timeout"`

	SQLiteConfig *SQLiteConfig `json:"sqlite,omitempty" yaml:"sqlite,omitempty"`
}

// SQLiteConfig carries SQLite-specific tuning.
type SQLiteConfig struct {
	// BusyTimeout is how long a writer waits for the database lock before the
	// transaction fails with a conflict.
	BusyTimeout time.Duration `json:"busy_timeout" yaml:"busy_timeout"`
	JournalMode string        `json:"journal_mode" yaml:"journal_mode"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Defaults applied when the corresponding config field is zero.
const (
	DefaultOperationTimeout = 5 * time.Second
	DefaultBusyTimeout      = 2 * time.Second
	DefaultJournalMode      = "WAL"
)

// Config validation errors.
var (
	ErrBackendEmpty       = errors.New("backend must not be empty")
	ErrBackendUnknown     = errors.New("unknown backend")
	ErrTimeoutInvalid     = errors.New("operation timeout must not be negative")
	ErrBusyTimeoutInvalid = errors.New("busy timeout must not be negative")
	ErrJournalModeUnknown = errors.New("unknown journal mode")
	ErrTimelineDetached   = errors.New("timeline is detached")
	ErrAlreadyAttached    = errors.New("timeline is already attached")
)

var knownBackends = map[string]bool{
	BackendSQLite: true,
}

var knownJournalModes = map[string]bool{
	"WAL":      true,
	"DELETE":   true,
	"TRUNCATE": true,
	"MEMORY":   true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.OperationTimeout < 0 {
		return ErrTimeoutInvalid
	}
	if c.SQLiteConfig != nil {
		if c.SQLiteConfig.BusyTimeout < 0 {
			return ErrBusyTimeoutInvalid
		}
		if c.SQLiteConfig.JournalMode != "" && !knownJournalModes[c.SQLiteConfig.JournalMode] {
			return ErrJournalModeUnknown
		}
	}
	return nil
}

// GetOperationTimeout returns the configured timeout or the default.
func (c Config) GetOperationTimeout() time.Duration {
	if c.OperationTimeout <= 0 {
		return DefaultOperationTimeout
	}
	return c.OperationTimeout
}

// GetBusyTimeout returns the configured busy timeout or the default.
func (s *SQLiteConfig) GetBusyTimeout() time.Duration {
	if s == nil || s.BusyTimeout <= 0 {
		return DefaultBusyTimeout
	}
	return s.BusyTimeout
}

// GetJournalMode returns the configured journal mode or the default.
func (s *SQLiteConfig) GetJournalMode() string {
	if s == nil || s.JournalMode == "" {
		return DefaultJournalMode
	}
	return s.JournalMode
}
