package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/appendable/internal/sqlite"
	"github.com/mesh-intelligence/appendable/pkg/types"
)

type cliEnv struct {
	configDir string
	dataDir   string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	return &cliEnv{configDir: t.TempDir(), dataDir: t.TempDir()}
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{
		"--config-dir", e.configDir,
		"--data-dir", e.dataDir,
		"--log-level", "error",
	}, args...))
	err := root.Execute()
	return out.String(), err
}

func (e *cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err)
	return out
}

func decodeOutput[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

const (
	dayStart = "2024-05-01T00:00:00Z"
	dayEnd   = "2024-05-02T00:00:00Z"
)

func TestInit(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun(t, "init")
	assert.Contains(t, out, "appendable initialized")

	data, err := os.ReadFile(filepath.Join(env.configDir, configFileExt))
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: sqlite")
	assert.Contains(t, string(data), "listen_addr:")
	assert.Contains(t, string(data), defaultListenAddr)
	assert.Contains(t, string(data), "data_dir: "+env.dataDir)
	assert.FileExists(t, filepath.Join(env.dataDir, sqlite.DatabaseFile))

	require.NoError(t, os.WriteFile(filepath.Join(env.configDir, configFileExt), []byte("backend: sqlite\n"), 0o644))
	env.mustRun(t, "init")
	data, err = os.ReadFile(filepath.Join(env.configDir, configFileExt))
	require.NoError(t, err)
	assert.Equal(t, "backend: sqlite\n", string(data), "existing config is left untouched")
}

func TestBlockCommands(t *testing.T) {
	env := newCLIEnv(t)

	first := decodeOutput[[]types.Block](t, env.mustRun(t, "--json", "block", "start", "--at", "2024-05-01T09:00:00Z", "write", "report"))
	require.Len(t, first, 1)
	assert.Equal(t, "write report", first[0].Text)
	assert.Nil(t, first[0].End)

	env.mustRun(t, "block", "start", "--at", "2024-05-01T10:00:00Z", "review")

	blocks := decodeOutput[[]types.Block](t, env.mustRun(t, "--json", "block", "list", "--start", dayStart, "--end", dayEnd))
	require.Len(t, blocks, 2)
	require.NotNil(t, blocks[0].End)
	assert.True(t, blocks[0].End.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
	assert.Nil(t, blocks[1].End)

	_, err := env.run(t, "block", "start", "--at", "2024-05-01T08:00:00Z", "late")
	require.Error(t, err)
	assert.Equal(t, types.CodeValidation, types.CodeOf(err))
	assert.Equal(t, exitUserError, exitCode(err))

	table := env.mustRun(t, "block", "list", "--start", dayStart, "--end", dayEnd)
	assert.Contains(t, table, "review")
	assert.Contains(t, table, "open")
	assert.Contains(t, table, "1h0m0s")

	env.mustRun(t, "block", "delete", first[0].BlockID)
	_, err = env.run(t, "block", "delete", first[0].BlockID)
	assert.Equal(t, types.CodeNotFound, types.CodeOf(err))

	_, err = env.run(t, "block", "list", "--start", "yesterday")
	assert.Equal(t, types.CodeBadRequest, types.CodeOf(err))
}

func TestEntryCommands(t *testing.T) {
	env := newCLIEnv(t)

	root := decodeOutput[[]types.Entry](t, env.mustRun(t, "--json", "entry", "add", "--at", "2024-05-01T09:00:00Z", "plan"))
	require.Len(t, root, 1)

	child := decodeOutput[[]types.Entry](t, env.mustRun(t, "--json", "entry", "add",
		"--at", "2024-05-01T09:10:00Z", "--parent", root[0].EntryID, "--todo", "--estimate", "25m", "outline"))
	require.Len(t, child, 1)
	assert.Equal(t, 1, child[0].Nesting)
	require.NotNil(t, child[0].EstimatedDuration)
	assert.Equal(t, int64(1500), *child[0].EstimatedDuration)

	table := env.mustRun(t, "entry", "list", "--start", dayStart, "--end", dayEnd)
	assert.Contains(t, table, "  [ ] outline", "children are indented under their parent")

	env.mustRun(t, "entry", "delete", "--with-children", root[0].EntryID)
	out := env.mustRun(t, "--json", "entry", "list", "--start", dayStart, "--end", dayEnd)
	assert.Empty(t, decodeOutput[[]types.Entry](t, out))

	_, err := env.run(t, "entry", "add", "--parent", "missing", "orphan")
	assert.Equal(t, types.CodeValidation, types.CodeOf(err))
}

func TestProjectList(t *testing.T) {
	env := newCLIEnv(t)

	assert.Contains(t, env.mustRun(t, "project", "list"), "none")
	assert.Equal(t, "[]\n", env.mustRun(t, "--json", "project", "list"))
}

func TestExportImport(t *testing.T) {
	env := newCLIEnv(t)
	backup := t.TempDir()

	env.mustRun(t, "block", "start", "--at", "2024-05-01T09:00:00Z", "focus")
	counts := decodeOutput[types.TableCounts](t, env.mustRun(t, "--json", "export", backup))
	assert.Equal(t, 1, counts[types.TableBlocks])
	assert.FileExists(t, filepath.Join(backup, types.TableBlocks+".jsonl"))

	fresh := &cliEnv{configDir: env.configDir, dataDir: t.TempDir()}
	imported := decodeOutput[types.TableCounts](t, fresh.mustRun(t, "--json", "import", backup))
	assert.Equal(t, 1, imported[types.TableBlocks])

	blocks := decodeOutput[[]types.Block](t, fresh.mustRun(t, "--json", "block", "list", "--start", dayStart, "--end", dayEnd))
	require.Len(t, blocks, 1)
	assert.Equal(t, "focus", blocks[0].Text)
}

func TestVersion(t *testing.T) {
	env := newCLIEnv(t)
	out := env.mustRun(t, "version")
	assert.Contains(t, out, Version)
}

func TestLoadSettings(t *testing.T) {
	t.Run("defaults without config file", func(t *testing.T) {
		s, err := loadSettings(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, types.BackendSQLite, s.Backend)
		assert.Equal(t, defaultListenAddr, s.ListenAddr)
		assert.Equal(t, types.DefaultOperationTimeout, s.OperationTimeout)
		assert.Equal(t, types.DefaultBusyTimeout, s.BusyTimeout)
		assert.Equal(t, defaultLogLevel, s.LogLevel)
	})

	t.Run("reads config.yaml and env overrides", func(t *testing.T) {
		dir := t.TempDir()
		yaml := "listen_addr: 0.0.0.0:9000\noperation_timeout: 3s\nbusy_timeout: 250ms\nlog_level: debug\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, configFileExt), []byte(yaml), 0o644))
		t.Setenv("APPENDABLE_LOG_LEVEL", "warn")

		s, err := loadSettings(dir)
		require.NoError(t, err)
		assert.Equal(t, "0.0.0.0:9000", s.ListenAddr)
		assert.Equal(t, 3*time.Second, s.OperationTimeout)
		assert.Equal(t, 250*time.Millisecond, s.BusyTimeout)
		assert.Equal(t, "warn", s.LogLevel)
	})

	t.Run("malformed config is an error", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, configFileExt), []byte("listen_addr: [\n"), 0o644))
		_, err := loadSettings(dir)
		assert.Error(t, err)
	})
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{"text info", "info", "text", false},
		{"json debug", "debug", "json", false},
		{"default format", "warn", "", false},
		{"unknown level", "loud", "text", true},
		{"unknown format", "info", "xml", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := newLogger(&buf, tt.level, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			logger.Error("probe")
			assert.Contains(t, buf.String(), "probe")
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"usage error", errors.New("unknown flag"), exitUserError},
		{"validation", types.Invalid("bad"), exitUserError},
		{"not found", types.NewError(types.CodeNotFound, "gone"), exitUserError},
		{"storage", types.NewError(types.CodeStorageUnavailable, "down"), exitSysError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
