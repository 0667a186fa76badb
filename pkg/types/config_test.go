package types

import (
	"errors"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty backend returns ErrBackendEmpty",
			config:  Config{Backend: "", DataDir: "/tmp/data"},
			wantErr: ErrBackendEmpty,
		},
		{
			name:    "unknown backend returns ErrBackendUnknown",
			config:  Config{Backend: "postgres", DataDir: "/tmp/data"},
			wantErr: ErrBackendUnknown,
		},
		{
			name:    "valid sqlite config",
			config:  Config{Backend: "sqlite", DataDir: "/tmp/data"},
			wantErr: nil,
		},
		{
			name:    "sqlite with empty DataDir is valid at config level",
			config:  Config{Backend: "sqlite", DataDir: ""},
			wantErr: nil,
		},
		{
			name:    "negative operation timeout",
			config:  Config{Backend: "sqlite", OperationTimeout: -time.Second},
			wantErr: ErrTimeoutInvalid,
		},
		{
			name: "negative busy timeout",
			config: Config{
				Backend:      "sqlite",
				SQLiteConfig: &SQLiteConfig{BusyTimeout: -time.Millisecond},
			},
			wantErr: ErrBusyTimeoutInvalid,
		},
		{
			name: "unknown journal mode",
			config: Config{
				Backend:      "sqlite",
				SQLiteConfig: &SQLiteConfig{JournalMode: "OFFLINE"},
			},
			wantErr: ErrJournalModeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %v, got nil", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	if got := cfg.GetOperationTimeout(); got != DefaultOperationTimeout {
		t.Fatalf("operation timeout = %v, want %v", got, DefaultOperationTimeout)
	}
	if got := cfg.SQLiteConfig.GetBusyTimeout(); got != DefaultBusyTimeout {
		t.Fatalf("busy timeout = %v, want %v", got, DefaultBusyTimeout)
	}
	if got := cfg.SQLiteConfig.GetJournalMode(); got != DefaultJournalMode {
		t.Fatalf("journal mode = %q, want %q", got, DefaultJournalMode)
	}

	cfg.OperationTimeout = time.Minute
	cfg.SQLiteConfig = &SQLiteConfig{BusyTimeout: time.Second, JournalMode: "DELETE"}
	if got := cfg.GetOperationTimeout(); got != time.Minute {
		t.Fatalf("operation timeout = %v, want 1m", got)
	}
	if got := cfg.SQLiteConfig.GetBusyTimeout(); got != time.Second {
		t.Fatalf("busy timeout = %v, want 1s", got)
	}
	if got := cfg.SQLiteConfig.GetJournalMode(); got != "DELETE" {
		t.Fatalf("journal mode = %q, want DELETE", got)
	}
}
