package session

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/go-dap"
	"github.com/grovetools/hspdebug/errors"
	"github.com/grovetools/hspdebug/internal/launch"
	"github.com/grovetools/hspdebug/internal/messages"
	"github.com/grovetools/hspdebug/pkg/process"
	"github.com/sirupsen/logrus"
)

func (s *Session) onLaunch(req *dap.LaunchRequest) {
	s.mu.Lock()
	if s.launching || s.state.active() || s.state == StateTerminated {
		err := errors.SessionState("launch", s.state.String())
		s.logger.WithError(err).Warn("Rejecting launch")
		s.sendError(&req.Request, errSessionState, s.localizer.Sprintf(messages.SessionBusy))
		s.mu.Unlock()
		return
	}
	s.launching = true
	s.mu.Unlock()

	s.launches.Add(1)
	go func() {
		defer s.launches.Done()
		s.runLaunch(req)
	}()
}

// runLaunch performs the launch sequence: gate on configurationDone, build,
// start the channel, settle, spawn the runtime, answer.
func (s *Session) runLaunch(req *dap.LaunchRequest) {
	defer func() {
		if r := recover(); r != nil {
			s.failLaunch(req, errInternal, s.localizer.Sprintf(messages.InternalError, r))
			s.logger.WithField("panic", r).Error("Launch panicked")
		}
	}()

	args, err := launch.Parse(req.Arguments, s.opts.Defaults)
	if err != nil {
		s.logger.WithError(err).Warn("Invalid launch arguments")
		s.failLaunch(req, errLaunchFailed, s.localizer.Sprintf(messages.LaunchInvalid, reason(err)))
		return
	}

	s.mu.Lock()
	s.request = args
	if s.state == StateInitialized || s.state == StateUninitialized {
		s.state = StateConfigurationPending
	}
	if args.Trace {
		s.logger = traceLogger(s.logger)
	}
	logger := s.logger.WithField("program", args.Program)
	s.mu.Unlock()

	if !s.waitConfiguration(logger) {
		return
	}

	logger.Info("Building program")
	// The build must finish even if the editor goes away mid-compile: the
	// helper memo for the work directory stays consistent only then.
	result, err := s.opts.Builder.Compile(context.Background(), args.BuildRequest())
	if err != nil {
		logger.WithError(err).Warn("Build could not start")
		s.failLaunch(req, errorID(err), s.buildErrorText(args, err))
		return
	}
	if !result.Success {
		logger.Warn("Compile failed")
		s.failLaunch(req, errCompileFailed, s.localizer.Sprintf(messages.CompileFailed, result.RawOutput))
		return
	}

	ch, err := s.startChannel()
	if err != nil {
		logger.WithError(err).Error("Failed to start the debuggee channel")
		s.failLaunch(req, errChannelFailed, s.localizer.Sprintf(messages.ChannelFailed, ch.Addr(), err))
		return
	}
	if ch == nil {
		logger.Debug("Session ended during build")
		return
	}

	if !s.sleep(s.opts.SettleDelay) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tornDown {
		logger.Debug("Session ended before the runtime started")
		return
	}

	s.handle = s.opts.Spawner.Spawn(
		result.RuntimeBinaryPath,
		[]string{result.ObjectArtifactPath},
		filepath.Dir(args.Program),
		process.Callbacks{
			OnExit:   s.onProcessExit,
			OnError:  s.onProcessError,
			OnOutput: s.onProcessOutput,
		},
	)
	s.state = StateRunning
	s.launching = false
	logger.WithField("runtime", result.RuntimeBinaryPath).Info("Debuggee started")
	s.sender.Send(&dap.LaunchResponse{Response: newResponse(&req.Request)})
}

// waitConfiguration blocks until configurationDone arrives or the timeout
// passes. It returns false if the session ended meanwhile.
func (s *Session) waitConfiguration(logger *logrus.Entry) bool {
	timer := time.NewTimer(s.opts.ConfigurationTimeout)
	defer timer.Stop()

	select {
	case <-s.configDone:
		return true
	case <-timer.C:
		logger.Debug("configurationDone not received, launching anyway")
		return true
	case <-s.closed:
		return false
	}
}

// sleep waits d unless the session ends first.
func (s *Session) sleep(d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-s.closed:
		return false
	}
}

func (s *Session) buildErrorText(args *launch.Request, err error) string {
	switch errors.GetCode(err) {
	case errors.ErrCodeInstallRootInvalid:
		return s.localizer.Sprintf(messages.CompilerMissing, args.InstallRoot)
	case errors.ErrCodeLaunchInvalid:
		return s.localizer.Sprintf(messages.LaunchInvalid, reason(err))
	default:
		return s.localizer.Sprintf(messages.InternalError, err)
	}
}

// failLaunch answers the launch with an error and returns the session to a
// state where another launch may be tried.
func (s *Session) failLaunch(req *dap.LaunchRequest, id int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.launching = false
	if s.tornDown {
		s.logger.WithField("text", text).Debug("Launch failed after the session ended")
		return
	}
	if s.channel != nil {
		if err := s.channel.Stop(); err != nil {
			s.logger.WithError(err).Debug("Failed to stop the debuggee channel")
		}
		s.channel = nil
	}
	if s.state == StateConfigurationPending {
		s.state = StateInitialized
	}
	s.sendError(&req.Request, id, text)
}

// startChannel creates and starts the debuggee channel. It returns a nil
// channel without error if the session has already ended. On failure the
// unstarted channel is returned with the error.
func (s *Session) startChannel() (Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tornDown {
		return nil, nil
	}

	ch := s.opts.NewChannel()
	if err := ch.Start(s.onChannelMessage); err != nil {
		return ch, err
	}
	s.channel = ch
	return ch, nil
}

// traceLogger returns a debug-level copy of entry with its own Logger, so
// tracing one session leaves the shared component logger untouched.
func traceLogger(entry *logrus.Entry) *logrus.Entry {
	base := entry.Logger
	traced := logrus.New()
	traced.SetOutput(base.Out)
	traced.SetFormatter(base.Formatter)
	traced.SetReportCaller(base.ReportCaller)
	hooks := make(logrus.LevelHooks, len(base.Hooks))
	for level, list := range base.Hooks {
		hooks[level] = append([]logrus.Hook(nil), list...)
	}
	traced.ReplaceHooks(hooks)
	traced.SetLevel(logrus.DebugLevel)
	return traced.WithFields(entry.Data)
}
