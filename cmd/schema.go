package cmd

import (
	"github.com/grovetools/hspdebug/cli"
	"github.com/grovetools/hspdebug/config"
	"github.com/grovetools/hspdebug/internal/launch"
	"github.com/spf13/cobra"
)

// NewSchemaCmd returns the command that prints the JSON Schemas an editor
// extension or a config linter needs.
func NewSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print JSON Schemas for launch arguments and configuration",
	}

	cmd.AddCommand(cli.NewSchemaCommand("launch", "Print the schema of the launch request arguments", launch.GenerateSchema))
	cmd.AddCommand(cli.NewSchemaCommand("config", "Print the schema of hspdebug.yml", config.GenerateSchema))

	return cmd
}
