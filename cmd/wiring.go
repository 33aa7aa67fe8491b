package cmd

import (
	"github.com/grovetools/hspdebug/command"
	"github.com/grovetools/hspdebug/config"
	"github.com/grovetools/hspdebug/internal/build"
	"github.com/grovetools/hspdebug/internal/channel"
	"github.com/grovetools/hspdebug/internal/launch"
	"github.com/grovetools/hspdebug/internal/session"
	"github.com/grovetools/hspdebug/logging"
	"github.com/grovetools/hspdebug/pkg/paths"
	"github.com/grovetools/hspdebug/pkg/process"
)

// newPipeline builds the compile pipeline described by cfg.
func newPipeline(cfg *config.Config) *build.Pipeline {
	logger := logging.NewLogger("build")
	return build.NewPipeline(build.Options{
		Runner:   command.NewRunner(cfg.Build.Timeout.Duration()),
		Resolver: build.MarkerResolver{Default: cfg.Build.DefaultRuntime},
		Waiter: &build.ArtifactWaiter{
			Attempts: cfg.Build.PollAttempts,
			Interval: cfg.Build.PollInterval.Duration(),
			Logger:   logger,
		},
		Logger: logger,
	})
}

// newChannelFactory returns a factory for debuggee endpoints described by cfg.
func newChannelFactory(cfg *config.Config) session.ChannelFactory {
	origin := channel.AllowAll()
	if len(cfg.Channel.AllowedOrigins) > 0 {
		origin = channel.AllowList(cfg.Channel.AllowedOrigins)
	}
	return func() session.Channel {
		return channel.NewServer(channel.Options{
			Addr:        cfg.Channel.Addr(),
			Subprotocol: cfg.Channel.Subprotocol,
			Origin:      origin,
			Logger:      logging.NewLogger("channel"),
		})
	}
}

// sessionFactory holds what sessions share: one pipeline, so the helper
// memo outlives a single editor connection, and one process supervisor.
type sessionFactory struct {
	cfg        *config.Config
	pipeline   *build.Pipeline
	supervisor *process.Supervisor
}

func newSessionFactory(cfg *config.Config) *sessionFactory {
	return &sessionFactory{
		cfg:        cfg,
		pipeline:   newPipeline(cfg),
		supervisor: process.NewSupervisor(process.WithLogger(logging.NewLogger("process"))),
	}
}

// Options returns the options for one new session.
func (f *sessionFactory) Options() session.Options {
	return session.Options{
		Builder:              f.pipeline,
		Spawner:              f.supervisor,
		NewChannel:           newChannelFactory(f.cfg),
		ConfigurationTimeout: f.cfg.Session.ConfigurationTimeout.Duration(),
		SettleDelay:          f.cfg.Session.SettleDelay.Duration(),
		Defaults:             launch.Defaults{WorkDir: paths.BuildDir()},
		Logger:               logging.NewLogger("session"),
	}
}

// Shutdown kills every debuggee still running.
func (f *sessionFactory) Shutdown() {
	f.supervisor.Shutdown()
}
