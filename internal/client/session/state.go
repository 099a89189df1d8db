package session

// State of a session. StateComplete and StateError are absorbing.
type State int

const (
	StateInitializing State = iota
	StatePolling
	StateAwaitingMove
	StateComplete
	StateError
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StatePolling:
		return "polling"
	case StateAwaitingMove:
		return "awaiting move result"
	case StateComplete:
		return "complete"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminated reports whether no further transition can happen.
func (s State) Terminated() bool {
	return s == StateComplete || s == StateError
}
