package cmd

import (
	"context"

	"github.com/grovetools/hspdebug/cli"
	"github.com/grovetools/hspdebug/errors"
	"github.com/grovetools/hspdebug/internal/launch"
	"github.com/grovetools/hspdebug/logging"
	"github.com/grovetools/hspdebug/pkg/paths"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewBuildCmd returns the command that runs the compile pipeline without a
// debug session.
func NewBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <program>",
		Short: "Compile an HSP program the way a launch would",
		Long: `Runs the same build pipeline as a debug launch: bootstraps the compile
helper in the work directory, compiles the program to start.ax next to it and
reports the runtime the program needs.

Examples:
  hspdebug build main.hsp --root "C:/hsp36"
  hspdebug build src/game.hsp --root /opt/hsp3 --encoding disabled --trace
`,
		Args: cobra.ExactArgs(1),
		RunE: runBuild,
	}

	cmd.Flags().String("root", "", "HSP3 install directory containing hspcmp.exe")
	cmd.Flags().String("work-dir", "", "Directory for the compile helper (default: cache directory)")
	cmd.Flags().String("encoding", "auto", "UTF-8 handling: auto, enabled, input, output, disabled")
	cmd.Flags().Bool("trace", false, "Rebuild the compile helper and log every stage")
	_ = cmd.MarkFlagRequired("root")

	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	pretty := logging.NewPrettyLogger().WithWriter(cmd.ErrOrStderr())
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return err
	}

	root, _ := cmd.Flags().GetString("root")
	workDir, _ := cmd.Flags().GetString("work-dir")
	encoding, _ := cmd.Flags().GetString("encoding")
	trace, _ := cmd.Flags().GetBool("trace")

	req, err := launch.Arguments{
		Program:      args[0],
		InstallRoot:  root,
		WorkDir:      workDir,
		Trace:        trace,
		EncodingMode: encoding,
	}.Resolve(launch.Defaults{WorkDir: paths.BuildDir()})
	if err != nil {
		return err
	}

	if trace {
		cli.GetLogger(cmd, "build").Logger.SetLevel(logrus.DebugLevel)
	}

	pretty.Path("Program", req.Program)
	pretty.Path("Install root", req.InstallRoot)
	pretty.Path("Work directory", req.WorkDir)

	result, err := newPipeline(cfg).Compile(context.Background(), req.BuildRequest())
	if err != nil {
		return err
	}

	pretty.Divider()
	if result.RawOutput != "" {
		pretty.Code(result.RawOutput)
		pretty.Divider()
	}
	if !result.Success {
		pretty.ErrorPretty("Compile failed", nil)
		return errors.BuildFailed("compile", result.RawOutput)
	}

	pretty.Success("Compiled")
	pretty.Path("Object file", result.ObjectArtifactPath)
	pretty.Path("Runtime", result.RuntimeBinaryPath)
	return nil
}
