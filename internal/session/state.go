package session

// State is the lifecycle stage of a session.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateConfigurationPending
	StateRunning
	StatePaused
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateConfigurationPending:
		return "configuration-pending"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// active reports whether a debuggee has been launched and not yet ended.
func (s State) active() bool {
	return s == StateRunning || s == StatePaused
}
