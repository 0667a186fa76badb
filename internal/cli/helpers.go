package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/appendable/internal/sqlite"
	"github.com/mesh-intelligence/appendable/pkg/types"
)

// logger builds the process logger writing to the command's stderr.
func (a *app) logger(cmd *cobra.Command) (*slog.Logger, error) {
	return newLogger(cmd.ErrOrStderr(), a.settings.LogLevel, a.settings.LogFormat)
}

// attachBackend resolves the data directory, creates a SQLite backend, and
// attaches it. The caller must defer backend.Detach().
func (a *app) attachBackend(cmd *cobra.Command) (*sqlite.Backend, error) {
	logger, err := a.logger(cmd)
	if err != nil {
		return nil, err
	}
	dataDir, err := a.resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	backend := sqlite.NewBackend(sqlite.WithLogger(logger))
	if err := backend.Attach(a.settings.timelineConfig(dataDir)); err != nil {
		return nil, fmt.Errorf("attach backend: %w", err)
	}
	return backend, nil
}

// withTimeline attaches the backend, runs fn, and detaches.
func (a *app) withTimeline(cmd *cobra.Command, fn func(tl *sqlite.Backend) error) error {
	backend, err := a.attachBackend(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Detach() }()
	return fn(backend)
}

// printer returns the output printer honoring --json.
func (a *app) printer(cmd *cobra.Command) *printer {
	return newPrinter(cmd.OutOrStdout(), a.flags.jsonMode)
}

// parseTimeFlag parses an RFC 3339 flag value, defaulting to now when empty.
func parseTimeFlag(name, value string, now time.Time) (time.Time, error) {
	if value == "" {
		return now, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, types.WrapError(types.CodeBadRequest, fmt.Sprintf("--%s must be an RFC 3339 timestamp", name), err)
	}
	return t, nil
}

// rangeFlags holds the optional --start/--end bounds of list commands.
type rangeFlags struct {
	start string
	end   string
}

func (f *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "exclusive lower bound, RFC 3339 (default: start of today, UTC)")
	cmd.Flags().StringVar(&f.end, "end", "", "exclusive upper bound, RFC 3339 (default: end of today, UTC)")
}

// resolve fills missing bounds from the UTC day containing now.
func (f *rangeFlags) resolve(now time.Time) (types.TimeRange, error) {
	var start, end *time.Time
	if f.start != "" {
		t, err := parseTimeFlag("start", f.start, now)
		if err != nil {
			return types.TimeRange{}, err
		}
		start = &t
	}
	if f.end != "" {
		t, err := parseTimeFlag("end", f.end, now)
		if err != nil {
			return types.TimeRange{}, err
		}
		end = &t
	}
	r := types.ResolveRange(start, end, now)
	return r, r.Validate()
}

// optionalString returns nil for an empty flag value.
func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
