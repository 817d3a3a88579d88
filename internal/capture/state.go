package capture

import "fmt"

// State is the lifecycle position of a Session.
type State int32

const (
	StateIdle State = iota
	StateStarting
	StateCapturing
	StateStopping
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateCapturing:
		return "capturing"
	case StateStopping:
		return "stopping"
	case StateFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}
