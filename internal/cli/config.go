package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/appendable/internal/paths"
	"github.com/mesh-intelligence/appendable/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// envPrefix names the environment overrides of the server keys, e.g.
	// APPENDABLE_LISTEN_ADDR.
	envPrefix = "APPENDABLE"

	cfgKeyBackend          = "backend"
	cfgKeyDataDir          = "data_dir"
	cfgKeyListenAddr       = "listen_addr"
	cfgKeyOperationTimeout = "operation_timeout"
	cfgKeyBusyTimeout      = "busy_timeout"
	cfgKeyLogLevel         = "log_level"
	cfgKeyLogFormat        = "log_format"

	defaultListenAddr = "127.0.0.1:8080"
	defaultLogLevel   = "info"
	defaultLogFormat  = "text"
)

// Settings is the resolved process configuration.
type Settings struct {
	ConfigDir        string
	Backend          string
	DataDir          string
	ListenAddr       string
	OperationTimeout time.Duration
	BusyTimeout      time.Duration
	LogLevel         string
	LogFormat        string
}

// configFile is the structure written to config.yaml by init.
type configFile struct {
	Backend          string `yaml:"backend"`
	DataDir          string `yaml:"data_dir,omitempty"`
	ListenAddr       string `yaml:"listen_addr"`
	OperationTimeout string `yaml:"operation_timeout"`
	BusyTimeout      string `yaml:"busy_timeout"`
	LogLevel         string `yaml:"log_level"`
	LogFormat        string `yaml:"log_format"`
}

// loadSettings reads config.yaml from configDir using Viper. A missing
// config.yaml is not an error; defaults apply.
func loadSettings(configDir string) (Settings, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyListenAddr, defaultListenAddr)
	v.SetDefault(cfgKeyOperationTimeout, types.DefaultOperationTimeout)
	v.SetDefault(cfgKeyBusyTimeout, types.DefaultBusyTimeout)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetDefault(cfgKeyLogFormat, defaultLogFormat)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	for _, key := range []string{cfgKeyListenAddr, cfgKeyLogLevel, cfgKeyLogFormat} {
		if err := v.BindEnv(key); err != nil {
			return Settings{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	return Settings{
		Backend:          v.GetString(cfgKeyBackend),
		DataDir:          v.GetString(cfgKeyDataDir),
		ListenAddr:       v.GetString(cfgKeyListenAddr),
		OperationTimeout: v.GetDuration(cfgKeyOperationTimeout),
		BusyTimeout:      v.GetDuration(cfgKeyBusyTimeout),
		LogLevel:         v.GetString(cfgKeyLogLevel),
		LogFormat:        v.GetString(cfgKeyLogFormat),
	}, nil
}

// timelineConfig builds the Attach config for the given data directory.
func (s Settings) timelineConfig(dataDir string) types.Config {
	return types.Config{
		Backend:          s.Backend,
		DataDir:          dataDir,
		OperationTimeout: s.OperationTimeout,
		SQLiteConfig:     &types.SQLiteConfig{BusyTimeout: s.BusyTimeout},
	}
}

// writeConfigIfMissing creates config.yaml from s if the file does not
// exist. It reports whether a file was written.
func writeConfigIfMissing(path string, s Settings) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&configFile{
		Backend:          s.Backend,
		DataDir:          s.DataDir,
		ListenAddr:       s.ListenAddr,
		OperationTimeout: s.OperationTimeout.String(),
		BusyTimeout:      s.BusyTimeout.String(),
		LogLevel:         s.LogLevel,
		LogFormat:        s.LogFormat,
	})
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	return true, os.WriteFile(path, data, 0o644)
}

// newLogger builds the process logger from the configured level and format.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// resolveConfigDir returns the configuration directory following the
// precedence --config-dir > APPENDABLE_CONFIG_DIR > platform default.
func resolveConfigDir(flag string) (string, error) {
	return paths.ResolveConfigDir(flag)
}

// resolveDataDir returns the data directory following the precedence
// --data-dir > config.yaml data_dir > APPENDABLE_DATA_DIR > platform default.
func (a *app) resolveDataDir() (string, error) {
	return paths.ResolveDataDir(a.flags.dataDir, a.settings.DataDir)
}
