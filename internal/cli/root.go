// Package cli implements the appendable command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/appendable/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	logLevel  string
	logFormat string
}

// app carries the state shared by subcommands once the root command has
// loaded configuration.
type app struct {
	flags    rootFlags
	settings Settings
}

// NewRootCmd creates the top-level "appendable" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "appendable",
		Short: "Track time as a chronological stream of blocks and nested entries",
		Long: "appendable records work as an append-mostly timeline: top-level blocks where\n" +
			"each new block closes the previous one, and a tree of nested entries.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.flags.logFormat, "log-format", "", "log format: text or json")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newServeCmd(a),
		newBlockCmd(a),
		newEntryCmd(a),
		newProjectCmd(a),
		newExportCmd(a),
		newImportCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// exitCode maps usage errors and rejected operations to exitUserError and
// storage failures to exitSysError.
func exitCode(err error) int {
	switch types.CodeOf(err) {
	case "", types.CodeValidation, types.CodeBadRequest, types.CodeNotFound, types.CodeConflict:
		return exitUserError
	default:
		return exitSysError
	}
}

// load resolves the config directory and reads config.yaml before any
// subcommand runs.
func (a *app) load(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	configDir, err := resolveConfigDir(a.flags.configDir)
	if err != nil {
		return err
	}
	settings, err := loadSettings(configDir)
	if err != nil {
		return err
	}
	if a.flags.logLevel != "" {
		settings.LogLevel = a.flags.logLevel
	}
	if a.flags.logFormat != "" {
		settings.LogFormat = a.flags.logFormat
	}
	settings.ConfigDir = configDir
	a.settings = settings
	return nil
}
