package session

import (
	"github.com/google/go-dap"
	"github.com/grovetools/hspdebug/errors"
)

// DAP error ids reported in ErrorResponse bodies.
const (
	errLaunchFailed = 1000 + iota
	errCompilerMissing
	errCompileFailed
	errChannelFailed
	errSessionState
	errUnsupported
	errSessionEnded
	errInternal
)

func newResponse(req *dap.Request) dap.Response {
	return dap.Response{
		ProtocolMessage: dap.ProtocolMessage{Type: "response"},
		Command:         req.Command,
		RequestSeq:      req.Seq,
		Success:         true,
	}
}

func newEvent(name string) dap.Event {
	return dap.Event{
		ProtocolMessage: dap.ProtocolMessage{Type: "event"},
		Event:           name,
	}
}

// NewErrorResponse builds a failed response for the request identified by
// seq and command.
func NewErrorResponse(seq int, command string, id int, text string) *dap.ErrorResponse {
	return &dap.ErrorResponse{
		Response: dap.Response{
			ProtocolMessage: dap.ProtocolMessage{Type: "response"},
			Command:         command,
			RequestSeq:      seq,
			Success:         false,
			Message:         text,
		},
		Body: dap.ErrorResponseBody{
			// Format treats {name} as a placeholder, and text may carry
			// compiler output, so the text travels as a variable.
			Error: &dap.ErrorMessage{
				Id:        id,
				Format:    "{reason}",
				Variables: map[string]string{"reason": text},
				ShowUser:  true,
			},
		},
	}
}

func (s *Session) sendError(req *dap.Request, id int, text string) {
	s.sender.Send(NewErrorResponse(req.Seq, req.Command, id, text))
}

// errorID maps an adapter error code onto a DAP error id.
func errorID(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeLaunchInvalid:
		return errLaunchFailed
	case errors.ErrCodeInstallRootInvalid:
		return errCompilerMissing
	case errors.ErrCodeBuildFailed:
		return errCompileFailed
	case errors.ErrCodeChannelListen:
		return errChannelFailed
	case errors.ErrCodeSessionState:
		return errSessionState
	default:
		return errInternal
	}
}

// reason returns the human part of an adapter error: its "reason" detail
// when set, its message otherwise.
func reason(err error) string {
	if adapterErr, ok := errors.As(err); ok {
		if r, ok := adapterErr.Details["reason"].(string); ok {
			return r
		}
		return adapterErr.Message
	}
	return err.Error()
}
