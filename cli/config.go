// ABOUTME: Config commands
// ABOUTME: Prints the effective settings and writes a default config file
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harperreed/vcfmerge/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the config file",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Printf("Config file: %s\n\n", a.path())
			cmd.Printf("  default_country_code = %s\n", a.cfg.DefaultCountryCode)
			cmd.Printf("  export_version       = %s\n", a.cfg.ExportVersion)
			cmd.Printf("  match_by             = %s\n", a.cfg.MatchBy)
			cmd.Printf("  log_level            = %s\n", a.cfg.LogLevel)
			cmd.Printf("  output_dir           = %s\n", a.cfg.OutputDir)
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.path()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
			}
			if err := config.SaveTo(config.Default(), path); err != nil {
				return err
			}
			cmd.Printf("Wrote default config to %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	cmd.AddCommand(show, initCmd)
	return cmd
}

func (a *app) path() string {
	if a.configPath != "" {
		return a.configPath
	}
	return config.ConfigPath()
}
