package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/grovetools/hspdebug/cli"
	"github.com/grovetools/hspdebug/internal/adapter"
	"github.com/grovetools/hspdebug/internal/pidfile"
	"github.com/grovetools/hspdebug/pkg/paths"
	"github.com/spf13/cobra"
)

// NewServeCmd returns the command that runs the debug adapter.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the debug adapter",
		Long: `Runs the HSP3 debug adapter. By default the editor talks to it over
stdin and stdout, which is how editors start debug adapters. With --listen
the adapter accepts editor connections on a TCP address instead, one
session per connection.

Examples:
  # Started by the editor
  hspdebug serve

  # Long-running server for an editor configured with debugServer
  hspdebug serve --listen 127.0.0.1:4711
`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("listen", "", "Accept editor connections on this TCP address")
	cmd.Flags().Bool("no-pidfile", false, "Do not guard --listen with a pid file")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := cli.GetLogger(cmd, "adapter")
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return err
	}

	factory := newSessionFactory(cfg)
	defer factory.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listen, _ := cmd.Flags().GetString("listen")
	if listen == "" {
		logger.WithField("pid", os.Getpid()).Info("Serving debug adapter on stdio")
		conn := adapter.NewConn(os.Stdin, os.Stdout, logger)

		done := make(chan error, 1)
		go func() { done <- conn.Serve(factory.Options()) }()
		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			logger.Info("Received stop signal")
			return nil
		}
	}

	noPidfile, _ := cmd.Flags().GetBool("no-pidfile")
	if !noPidfile {
		pidPath := paths.PidFilePath()
		if err := pidfile.Acquire(pidPath); err != nil {
			return fmt.Errorf("failed to start: %w", err)
		}
		defer func() {
			if err := pidfile.Release(pidPath); err != nil {
				logger.Errorf("Failed to release pidfile: %v", err)
			}
		}()
	}

	srv := adapter.NewServer(listen, factory.Options, logger)
	if err := srv.Listen(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Listening on %s\n", srv.Addr())
	return srv.Serve(ctx)
}
