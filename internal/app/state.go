package service

import "fmt"

// State is the lifecycle stage of a replay run.
type State int

// Run states. A run only moves forward; Failed is terminal.
const (
	StateIdle State = iota
	StateSeeding
	StateReplaying
	StateFolding
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSeeding:
		return "seeding"
	case StateReplaying:
		return "replaying"
	case StateFolding:
		return "folding"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
