// ABOUTME: Root cobra command and shared command state
// ABOUTME: Loads config, builds the logger, and registers every subcommand
package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/harperreed/vcfmerge/config"
)

var version = "dev"

// app carries what every subcommand needs after the root pre-run.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *log.Logger
}

// NewRootCmd builds the command tree. Each call returns independent state.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "vcfmerge",
		Short: "Find and merge duplicate contacts in vCard files",
		Long: `vcfmerge reads vCard 2.1, 3.0 and 4.0 files, groups contacts that look like
the same person by name, phone or email, and walks you through merging them.

Settings live in $XDG_CONFIG_HOME/vcfmerge/config.toml and can be overridden
with VCFMERGE_* environment variables or a .env file.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file path (default: "+config.ConfigPath()+")")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newMergeCmd(a),
		newConvertCmd(a),
		newGroupsCmd(a),
		newGraphCmd(a),
		newPhoneCmd(a),
		newConfigCmd(a),
		newMCPCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var err error
	if a.configPath == "" {
		a.cfg, err = config.Load()
	} else {
		a.cfg, err = config.LoadFrom(a.configPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := a.cfg.Level()
	if a.verbose {
		level = log.DebugLevel
	}
	a.logger = log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Level:  level,
		Prefix: "vcfmerge",
	})
	return nil
}

// Execute runs the root command against os.Args.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
