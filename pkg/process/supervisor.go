package process

import (
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/grovetools/hspdebug/command"
	"github.com/grovetools/hspdebug/errors"
	"github.com/sirupsen/logrus"
)

// ErrSupervisorShutdown is reported through OnError for spawns after Shutdown.
var ErrSupervisorShutdown = stderrors.New("supervisor is shut down")

// waitDelay bounds how long an exit waits for output pipes that a
// grandchild keeps open.
const waitDelay = 2 * time.Second

// Stream identifies which output stream a line came from.
type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// Callbacks receive the lifecycle of one spawned process. Exactly one of
// OnExit and OnError is called, once. OnOutput is called for each line the
// process prints, always before the terminal callback. All fields are
// optional.
type Callbacks struct {
	OnExit   func(code int)
	OnError  func(err error)
	OnOutput func(stream Stream, line string)
}

// Handle is a spawned process.
type Handle struct {
	ID     string
	Binary string

	cmd  *exec.Cmd
	done chan struct{}
	once sync.Once

	mu       sync.Mutex
	pid      int
	exitCode *int
	lastErr  error
}

// Pid returns the operating system process id, or 0 if the spawn failed.
func (h *Handle) Pid() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pid
}

// ExitCode returns the exit code once the process has exited.
func (h *Handle) ExitCode() (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.exitCode == nil {
		return 0, false
	}
	return *h.exitCode, true
}

// Err returns the spawn or wait failure, if any.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr
}

// Done is closed after the terminal callback has returned.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Exited reports whether the process has finished.
func (h *Handle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Supervisor spawns and tracks debuggee processes.
// Supervisor is safe for concurrent use.
type Supervisor struct {
	executor command.Executor
	logger   *logrus.Entry

	mu      sync.Mutex
	handles map[string]*Handle
	closed  bool
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithExecutor replaces the command factory.
func WithExecutor(e command.Executor) Option {
	return func(s *Supervisor) { s.executor = e }
}

// WithLogger sets the logger.
func WithLogger(l *logrus.Entry) Option {
	return func(s *Supervisor) { s.logger = l }
}

// NewSupervisor creates a Supervisor.
func NewSupervisor(opts ...Option) *Supervisor {
	s := &Supervisor{
		executor: command.OSExecutor,
		handles:  make(map[string]*Handle),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		discard := logrus.New()
		discard.SetLevel(logrus.PanicLevel)
		s.logger = logrus.NewEntry(discard)
	}
	return s
}

// Spawn starts binary with args in cwd. It never blocks on the process and
// never returns an error: a failed start is delivered to cb.OnError from
// another goroutine.
func (s *Supervisor) Spawn(binary string, args []string, cwd string, cb Callbacks) *Handle {
	h := &Handle{
		ID:     uuid.New().String(),
		Binary: binary,
		done:   make(chan struct{}),
	}
	logger := s.logger.WithFields(logrus.Fields{"handle": h.ID, "binary": binary})

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		go h.finish(cb, nil, errors.ProcessSpawn(binary, ErrSupervisorShutdown))
		return h
	}

	stdout := newLineWriter(Stdout, cb.OnOutput)
	stderr := newLineWriter(Stderr, cb.OnOutput)

	// The runtime outlives any request context; Kill stops it.
	cmd := s.executor.Command(context.Background(), command.Invocation{Name: binary, Args: args, Dir: cwd})
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	h.cmd = cmd

	if err := cmd.Start(); err != nil {
		s.mu.Unlock()
		logger.WithError(err).Warn("Failed to spawn process")
		go h.finish(cb, nil, errors.ProcessSpawn(binary, err))
		return h
	}

	h.mu.Lock()
	h.pid = cmd.Process.Pid
	h.mu.Unlock()
	s.handles[h.ID] = h
	s.mu.Unlock()

	logger.WithField("pid", h.pid).Info("Spawned process")

	go func() {
		waitErr := cmd.Wait()
		stdout.Flush()
		stderr.Flush()

		s.forget(h)

		var exitErr *exec.ExitError
		if waitErr == nil || stderrors.As(waitErr, &exitErr) || stderrors.Is(waitErr, exec.ErrWaitDelay) {
			code := cmd.ProcessState.ExitCode()
			logger.WithField("code", code).Info("Process exited")
			h.finish(cb, &code, nil)
			return
		}
		logger.WithError(waitErr).Warn("Process wait failed")
		h.finish(cb, nil, errors.Wrap(waitErr, errors.ErrCodeProcessCrashed, "process wait failed"))
	}()

	return h
}

// Kill terminates the process behind h and stops tracking it.
// It is a no-op for nil, failed or already exited handles and may be called
// any number of times. The handle's callbacks still fire when the process
// goes away.
func (s *Supervisor) Kill(h *Handle) error {
	if h == nil {
		return nil
	}
	s.forget(h)

	if h.cmd == nil || h.cmd.Process == nil || h.Exited() {
		return nil
	}
	if err := h.cmd.Process.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// Shutdown kills every tracked process and rejects further spawns.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	s.closed = true
	handles := make([]*Handle, 0, len(s.handles))
	for _, h := range s.handles {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	for _, h := range handles {
		_ = s.Kill(h)
	}
}

// Count returns the number of tracked processes.
func (s *Supervisor) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

func (s *Supervisor) forget(h *Handle) {
	s.mu.Lock()
	delete(s.handles, h.ID)
	s.mu.Unlock()
}

func (h *Handle) finish(cb Callbacks, code *int, err error) {
	h.once.Do(func() {
		h.mu.Lock()
		h.exitCode = code
		h.lastErr = err
		h.mu.Unlock()

		defer close(h.done)
		if err != nil {
			if cb.OnError != nil {
				cb.OnError(err)
			}
			return
		}
		if cb.OnExit != nil {
			cb.OnExit(*code)
		}
	})
}
