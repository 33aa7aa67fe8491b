package session

import (
	"path/filepath"

	"github.com/google/go-dap"
	"github.com/google/uuid"
	"github.com/grovetools/hspdebug/errors"
	"github.com/grovetools/hspdebug/internal/messages"
	"github.com/grovetools/hspdebug/internal/wire"
	"github.com/sirupsen/logrus"
)

func (s *Session) onInitialize(req *dap.InitializeRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUninitialized {
		err := errors.SessionState("initialize", s.state.String())
		s.sendError(&req.Request, errSessionState, err.Error())
		return
	}

	s.localizer = messages.For(req.Arguments.Locale)
	s.state = StateInitialized
	s.logger.WithFields(logrus.Fields{
		"client": req.Arguments.ClientID,
		"locale": s.localizer.Language().String(),
	}).Info("Client initialized")

	s.sender.Send(&dap.InitializeResponse{
		Response: newResponse(&req.Request),
		Body: dap.Capabilities{
			SupportsConfigurationDoneRequest: true,
			SupportsTerminateRequest:         true,
		},
	})
	s.sender.Send(&dap.InitializedEvent{Event: newEvent("initialized")})
}

func (s *Session) onConfigurationDone(req *dap.ConfigurationDoneRequest) {
	s.configOnce.Do(func() { close(s.configDone) })
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sender.Send(&dap.ConfigurationDoneResponse{Response: newResponse(&req.Request)})
}

// onSetBreakpoints acknowledges source breakpoints without installing them;
// the debuggee decides where it stops.
func (s *Session) onSetBreakpoints(req *dap.SetBreakpointsRequest) {
	lines := req.Arguments.Lines
	if len(req.Arguments.Breakpoints) > 0 {
		lines = make([]int, 0, len(req.Arguments.Breakpoints))
		for _, bp := range req.Arguments.Breakpoints {
			lines = append(lines, bp.Line)
		}
	}

	source := req.Arguments.Source
	breakpoints := make([]dap.Breakpoint, 0, len(lines))
	for _, line := range lines {
		breakpoints = append(breakpoints, dap.Breakpoint{
			Verified: false,
			Source:   &source,
			Line:     line,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sender.Send(&dap.SetBreakpointsResponse{
		Response: newResponse(&req.Request),
		Body:     dap.SetBreakpointsResponseBody{Breakpoints: breakpoints},
	})
}

func (s *Session) onSetExceptionBreakpoints(req *dap.SetExceptionBreakpointsRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sender.Send(&dap.SetExceptionBreakpointsResponse{
		Response: newResponse(&req.Request),
		Body:     dap.SetExceptionBreakpointsResponseBody{Breakpoints: []dap.Breakpoint{}},
	})
}

func (s *Session) onContinue(req *dap.ContinueRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.forward(wire.Request{Type: wire.TypeContinue})
	s.resume()
	s.sender.Send(&dap.ContinueResponse{
		Response: newResponse(&req.Request),
		Body:     dap.ContinueResponseBody{AllThreadsContinued: true},
	})
}

func (s *Session) onNext(req *dap.NextRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.forward(wire.Request{Type: wire.TypeNext})
	s.resume()
	s.sender.Send(&dap.NextResponse{Response: newResponse(&req.Request)})
}

// onPause reports the stop at once. The debuggee confirms it later with a
// stop notification that carries the actual position.
func (s *Session) onPause(req *dap.PauseRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.forward(wire.Request{Type: wire.TypePause})
	if s.state == StateRunning {
		s.state = StatePaused
	}
	s.pauseUnconfirmed = true
	s.sender.Send(&dap.PauseResponse{Response: newResponse(&req.Request)})
	s.sender.Send(&dap.StoppedEvent{
		Event: newEvent("stopped"),
		Body: dap.StoppedEventBody{
			Reason:            "pause",
			ThreadId:          threadID,
			AllThreadsStopped: true,
		},
	})
}

func (s *Session) onStackTrace(req *dap.StackTraceRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frame := dap.StackFrame{
		Id:     1,
		Name:   "main",
		Source: s.currentSource(),
		Line:   s.currentLine,
		Column: 1,
	}
	s.sender.Send(&dap.StackTraceResponse{
		Response: newResponse(&req.Request),
		Body: dap.StackTraceResponseBody{
			StackFrames: []dap.StackFrame{frame},
			TotalFrames: 1,
		},
	})
}

// currentSource resolves the reported file against the program directory.
func (s *Session) currentSource() *dap.Source {
	path := s.currentFile
	if !filepath.IsAbs(path) && s.request != nil {
		path = filepath.Join(filepath.Dir(s.request.Program), path)
	}
	return &dap.Source{
		Name: filepath.Base(s.currentFile),
		Path: path,
	}
}

func (s *Session) onThreads(req *dap.ThreadsRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sender.Send(&dap.ThreadsResponse{
		Response: newResponse(&req.Request),
		Body: dap.ThreadsResponseBody{
			Threads: []dap.Thread{{Id: threadID, Name: s.localizer.Sprintf(messages.MainThread)}},
		},
	})
}

func (s *Session) onScopes(req *dap.ScopesRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sender.Send(&dap.ScopesResponse{
		Response: newResponse(&req.Request),
		Body: dap.ScopesResponseBody{
			Scopes: []dap.Scope{{
				Name:               s.localizer.Sprintf(messages.GlobalsScope),
				VariablesReference: globalsReference,
				Expensive:          true,
			}},
		},
	})
}

// onVariables answers the Globals scope once the debuggee reports its
// globals. Other references have no children.
func (s *Session) onVariables(req *dap.VariablesRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Arguments.VariablesReference != globalsReference || s.channel == nil || s.tornDown {
		s.sendVariables(req, nil)
		return
	}

	id := uuid.NewString()
	s.pending = append(s.pending, pendingVariables{id: id, request: req})
	s.forward(wire.Request{Type: wire.TypeGlobals, ID: id})
}

func (s *Session) sendVariables(req *dap.VariablesRequest, vars []wire.Variable) {
	variables := make([]dap.Variable, 0, len(vars))
	for _, v := range vars {
		variables = append(variables, dap.Variable{Name: v.Name, Value: v.Value})
	}
	s.sender.Send(&dap.VariablesResponse{
		Response: newResponse(&req.Request),
		Body:     dap.VariablesResponseBody{Variables: variables},
	})
}

// onTerminate kills the debuggee. Its exit produces the terminated event.
func (s *Session) onTerminate(req *dap.TerminateRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sender.Send(&dap.TerminateResponse{Response: newResponse(&req.Request)})
	if s.handle == nil || s.handle.Exited() {
		s.emitTerminated()
		s.teardown()
		return
	}
	if err := s.opts.Spawner.Kill(s.handle); err != nil {
		s.logger.WithError(err).Warn("Failed to kill the debuggee")
	}
}

// onDisconnect ends the session. It never emits terminated and may be
// repeated.
func (s *Session) onDisconnect(req *dap.DisconnectRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.teardown()
	s.sender.Send(&dap.DisconnectResponse{Response: newResponse(&req.Request)})
	s.doneOnce.Do(func() { close(s.done) })
	s.logger.Info("Client disconnected")
}

func (s *Session) onUnsupported(req *dap.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.WithField("command", req.Command).Warn("Unsupported request")
	s.sendError(req, errUnsupported, s.localizer.Sprintf(messages.Unsupported, req.Command))
}

// forward sends a request to the debuggee. Without a channel it is dropped.
// Callers hold mu.
func (s *Session) forward(r wire.Request) {
	if s.channel == nil {
		s.logger.WithField("type", r.Type).Debug("No debuggee channel, dropping request")
		return
	}
	s.channel.Send(r.Encode())
}

// resume marks the debuggee as running after continue or next.
func (s *Session) resume() {
	s.pauseUnconfirmed = false
	if s.state == StatePaused {
		s.state = StateRunning
	}
}
