// Package session implements one debug session: the DAP request handlers
// and the coordination of the build pipeline, the debuggee channel and the
// runtime process behind them.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/go-dap"
	"github.com/grovetools/hspdebug/internal/build"
	"github.com/grovetools/hspdebug/internal/launch"
	"github.com/grovetools/hspdebug/internal/messages"
	"github.com/grovetools/hspdebug/pkg/process"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultConfigurationTimeout bounds how long launch waits for
	// configurationDone.
	DefaultConfigurationTimeout = time.Second

	// DefaultSettleDelay is the pause between starting the channel and
	// spawning the runtime.
	DefaultSettleDelay = 500 * time.Millisecond

	// defaultFile is reported by stackTrace until the debuggee stops.
	defaultFile = "main.hsp"

	// threadID is the only thread an HSP program has.
	threadID = 1

	// globalsReference is the variablesReference of the Globals scope.
	globalsReference = 1
)

// Sender delivers a protocol message to the editor. The implementation
// assigns sequence numbers.
type Sender interface {
	Send(msg dap.Message)
}

// Builder compiles a program into a runnable object file.
type Builder interface {
	Compile(ctx context.Context, req build.Request) (*build.Result, error)
}

// Spawner starts and stops the runtime process.
type Spawner interface {
	Spawn(binary string, args []string, cwd string, cb process.Callbacks) *process.Handle
	Kill(h *process.Handle) error
}

// Channel is the text message endpoint the debuggee connects to.
type Channel interface {
	Start(onMessage func(string)) error
	Send(text string)
	Stop() error
	Connected() bool
	Addr() string
}

// ChannelFactory creates the channel for one launch.
type ChannelFactory func() Channel

// Options configures a Session. Builder, Spawner and NewChannel are required.
type Options struct {
	Builder    Builder
	Spawner    Spawner
	NewChannel ChannelFactory

	ConfigurationTimeout time.Duration
	SettleDelay          time.Duration
	Defaults             launch.Defaults

	Logger *logrus.Entry
}

// pendingVariables is a variables request waiting for a globals notification.
type pendingVariables struct {
	id      string
	request *dap.VariablesRequest
}

// Session holds the state of one editor connection. Handle may be called
// from a single reader goroutine; debuggee and process callbacks arrive on
// their own goroutines and are serialized with requests by mu.
type Session struct {
	opts   Options
	sender Sender
	logger *logrus.Entry

	configOnce sync.Once
	configDone chan struct{}
	closed     chan struct{}
	doneOnce   sync.Once
	done       chan struct{}
	launches   sync.WaitGroup

	mu        sync.Mutex
	state     State
	launching bool
	localizer *messages.Localizer
	request   *launch.Request
	channel   Channel
	handle    *process.Handle

	currentFile string
	currentLine int

	pending          []pendingVariables
	pauseUnconfirmed bool
	terminatedSent   bool
	tornDown         bool
}

// New creates a session in the Uninitialized state.
func New(sender Sender, opts Options) *Session {
	if opts.ConfigurationTimeout <= 0 {
		opts.ConfigurationTimeout = DefaultConfigurationTimeout
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	if opts.Logger == nil {
		discard := logrus.New()
		discard.SetLevel(logrus.PanicLevel)
		opts.Logger = logrus.NewEntry(discard)
	}

	return &Session{
		opts:        opts,
		sender:      sender,
		logger:      opts.Logger,
		configDone:  make(chan struct{}),
		closed:      make(chan struct{}),
		done:        make(chan struct{}),
		state:       StateUninitialized,
		localizer:   messages.For(""),
		currentFile: defaultFile,
		currentLine: 1,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed once a disconnect request has been answered.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close tears the session down without answering anything. It is used when
// the editor connection is lost and is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	s.teardown()
	s.mu.Unlock()
}

// Wait blocks until every launch started by this session has returned.
func (s *Session) Wait() {
	s.launches.Wait()
}

// Handle dispatches one request from the editor.
func (s *Session) Handle(msg dap.Message) {
	switch req := msg.(type) {
	case *dap.InitializeRequest:
		s.onInitialize(req)
	case *dap.ConfigurationDoneRequest:
		s.onConfigurationDone(req)
	case *dap.LaunchRequest:
		s.onLaunch(req)
	case *dap.SetBreakpointsRequest:
		s.onSetBreakpoints(req)
	case *dap.SetExceptionBreakpointsRequest:
		s.onSetExceptionBreakpoints(req)
	case *dap.ContinueRequest:
		s.onContinue(req)
	case *dap.NextRequest:
		s.onNext(req)
	case *dap.PauseRequest:
		s.onPause(req)
	case *dap.StackTraceRequest:
		s.onStackTrace(req)
	case *dap.ThreadsRequest:
		s.onThreads(req)
	case *dap.ScopesRequest:
		s.onScopes(req)
	case *dap.VariablesRequest:
		s.onVariables(req)
	case *dap.TerminateRequest:
		s.onTerminate(req)
	case *dap.DisconnectRequest:
		s.onDisconnect(req)
	case dap.RequestMessage:
		s.onUnsupported(req.GetRequest())
	default:
		s.mu.Lock()
		s.logger.WithField("seq", msg.GetSeq()).Warn("Ignoring non-request message from the editor")
		s.mu.Unlock()
	}
}

// Reject answers a request the protocol decoder could not map to a type.
func (s *Session) Reject(seq int, command string) {
	s.onUnsupported(&dap.Request{
		ProtocolMessage: dap.ProtocolMessage{Seq: seq, Type: "request"},
		Command:         command,
	})
}

// teardown releases the channel and the process and fails pending
// variables requests. Callers hold mu.
func (s *Session) teardown() {
	if s.tornDown {
		return
	}
	s.tornDown = true
	s.state = StateTerminated
	close(s.closed)

	if s.channel != nil {
		if err := s.channel.Stop(); err != nil {
			s.logger.WithError(err).Warn("Failed to stop the debuggee channel")
		}
	}
	if s.handle != nil {
		if err := s.opts.Spawner.Kill(s.handle); err != nil {
			s.logger.WithError(err).Warn("Failed to kill the debuggee")
		}
	}

	for _, p := range s.pending {
		s.sendError(&p.request.Request, errSessionEnded, "the debug session ended")
	}
	s.pending = nil
	s.logger.Debug("Session torn down")
}

// emitTerminated sends the terminated event at most once. Callers hold mu.
func (s *Session) emitTerminated() {
	if s.terminatedSent {
		return
	}
	s.terminatedSent = true
	s.sender.Send(&dap.TerminatedEvent{Event: newEvent("terminated")})
}
