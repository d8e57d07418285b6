package relay

// State represents the relay session lifecycle state
type State int

const (
	StateInit State = iota
	StateConnecting
	StateStreaming
	StateDraining
	StateStopped
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
