package main

import (
	"os"

	"github.com/grovetools/hspdebug/cli"
	"github.com/grovetools/hspdebug/cmd"
	"github.com/grovetools/hspdebug/version"
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"hspdebug",
		"Debug adapter for HSP3 programs",
	)
	rootCmd.Long = `Debug adapter for HSP3 programs.

Run 'hspdebug serve' from an editor to speak the Debug Adapter Protocol on
stdin/stdout, or 'hspdebug serve --listen 127.0.0.1:4711' to accept editor
connections over TCP.`
	cli.SetVersionTemplate(rootCmd, version.GetInfo())

	rootCmd.AddCommand(cmd.NewServeCmd())
	rootCmd.AddCommand(cmd.NewBuildCmd())
	rootCmd.AddCommand(cmd.NewStatusCmd())
	rootCmd.AddCommand(cmd.NewStopCmd())
	rootCmd.AddCommand(cmd.NewSchemaCmd())
	rootCmd.AddCommand(cmd.NewConfigCmd())
	rootCmd.AddCommand(cmd.NewLogsCmd())
	rootCmd.AddCommand(cmd.NewPathsCmd())
	rootCmd.AddCommand(cli.NewVersionCommand("hspdebug"))

	cli.ApplyStyledHelpRecursive(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
		_ = cli.NewErrorHandler(verbose).Handle(err)
		os.Exit(1)
	}
}
