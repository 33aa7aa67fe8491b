package cmd

import (
	"fmt"
	"os"

	"github.com/grovetools/hspdebug/cli"
	"github.com/grovetools/hspdebug/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCmd returns the command that shows the effective configuration.
func NewConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Display the effective configuration",
		Long: `Shows the configuration the adapter would run with, built by merging:
1. Global config (<config dir>/hspdebug.yml or hspdebug.toml)
2. Project config (hspdebug.yml found upward from the current directory)
Defaults fill everything neither file sets.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if path := config.GlobalConfigPath(); path != "" {
				if _, err := os.Stat(path); err == nil {
					fmt.Fprintf(out, "# Global: %s\n", path)
				}
			}
			if cwd, err := os.Getwd(); err == nil {
				if path, err := config.FindConfigFile(cwd); err == nil && path != config.GlobalConfigPath() {
					fmt.Fprintf(out, "# Project: %s\n", path)
				}
			}
			if opts := cli.GetOptions(cmd); opts.ConfigFile != "" {
				fmt.Fprintf(out, "# File: %s\n", opts.ConfigFile)
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to render configuration: %w", err)
			}
			fmt.Fprint(out, string(data))
			return nil
		},
	}
}
