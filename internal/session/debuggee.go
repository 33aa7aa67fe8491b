package session

import (
	"github.com/google/go-dap"
	"github.com/grovetools/hspdebug/errors"
	"github.com/grovetools/hspdebug/internal/messages"
	"github.com/grovetools/hspdebug/internal/wire"
	"github.com/grovetools/hspdebug/pkg/process"
)

// onChannelMessage handles one text frame from the debuggee.
func (s *Session) onChannelMessage(text string) {
	n, err := wire.Decode(text)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.logger.WithError(err).Warn("Ignoring debuggee message")
		return
	}
	if s.tornDown {
		return
	}

	switch n.Type {
	case wire.TypeStop:
		if n.File != "" {
			s.currentFile = n.File
		}
		s.currentLine = n.Line
		s.pauseUnconfirmed = false
		s.state = StatePaused
		s.sender.Send(&dap.StoppedEvent{
			Event: newEvent("stopped"),
			Body: dap.StoppedEventBody{
				Reason:            "breakpoint",
				ThreadId:          threadID,
				AllThreadsStopped: true,
			},
		})

	case wire.TypeContinue:
		s.resume()
		s.state = StateRunning
		s.sender.Send(&dap.ContinuedEvent{
			Event: newEvent("continued"),
			Body: dap.ContinuedEventBody{
				ThreadId:            threadID,
				AllThreadsContinued: true,
			},
		})

	case wire.TypeGlobals:
		s.fulfillVariables(n)

	case wire.TypeBreakpoint:
		s.sender.Send(&dap.BreakpointEvent{
			Event: newEvent("breakpoint"),
			Body: dap.BreakpointEventBody{
				Reason: "changed",
				Breakpoint: dap.Breakpoint{
					Id:       n.BreakpointID,
					Verified: n.Verified,
				},
			},
		})

	case wire.TypeOutput:
		s.sendOutput("stdout", n.Text)
	}
}

// fulfillVariables answers the pending variables request whose id the
// notification echoes, or the oldest one. Callers hold mu.
func (s *Session) fulfillVariables(n *wire.Notification) {
	if len(s.pending) == 0 {
		s.logger.Warn("Globals arrived without a pending variables request")
		return
	}

	index := 0
	if n.ID != "" {
		for i, p := range s.pending {
			if p.id == n.ID {
				index = i
				break
			}
		}
	}

	p := s.pending[index]
	s.pending = append(s.pending[:index], s.pending[index+1:]...)
	s.sendVariables(p.request, n.Vars)
}

func (s *Session) onProcessOutput(stream process.Stream, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tornDown {
		return
	}
	s.sendOutput(string(stream), line+"\n")
}

func (s *Session) onProcessExit(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tornDown {
		return
	}

	s.logger.WithField("code", code).Info("Debuggee exited")
	s.sendOutput("console", s.localizer.Sprintf(messages.DebuggeeExited, code)+"\n")
	s.emitTerminated()
	s.teardown()
}

func (s *Session) onProcessError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tornDown {
		return
	}

	text := s.localizer.Sprintf(messages.DebuggeeFailed, err)
	if adapterErr, ok := errors.As(err); ok && adapterErr.Code == errors.ErrCodeProcessSpawn && s.handle != nil {
		text = s.localizer.Sprintf(messages.SpawnFailed, s.handle.Binary, adapterErr.Cause)
	}
	s.logger.WithError(err).Warn("Debuggee failed")
	s.sendOutput("stderr", text+"\n")
	s.emitTerminated()
	s.teardown()
}

// sendOutput emits an output event. Callers hold mu.
func (s *Session) sendOutput(category, text string) {
	s.sender.Send(&dap.OutputEvent{
		Event: newEvent("output"),
		Body: dap.OutputEventBody{
			Category: category,
			Output:   text,
		},
	})
}
