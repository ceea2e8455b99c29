package clock

import "fmt"

// Side names one of the two player timers
type Side string

const (
	SideNone Side = ""
	SideA    Side = "a" // top
	SideB    Side = "b" // bottom
)

func (s Side) String() string {
	switch s {
	case SideA:
		return "top"
	case SideB:
		return "bottom"
	default:
		return "none"
	}
}

// Valid reports whether s names a real timer
func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

// Opposite returns the other side, SideNone stays SideNone
func (s Side) Opposite() Side {
	switch s {
	case SideA:
		return SideB
	case SideB:
		return SideA
	default:
		return SideNone
	}
}

// ParseSide accepts "a"/"b" and the display names "top"/"bottom"
func ParseSide(v string) (Side, error) {
	switch v {
	case "a", "A", "top":
		return SideA, nil
	case "b", "B", "bottom":
		return SideB, nil
	default:
		return SideNone, fmt.Errorf("invalid side %q", v)
	}
}

type State int

const (
	StateIdle     State = iota // reset, waiting for the opening tap
	StateRunning               // exactly one timer counting down
	StateGameOver              // a flag fell
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = StateIdle
	case "running":
		*s = StateRunning
	case "game_over":
		*s = StateGameOver
	default:
		return fmt.Errorf("unknown clock state %q", string(b))
	}
	return nil
}

// Transition classifies a state change for listeners
type Transition string

const (
	TransitionStarted  Transition = "started"  // Idle -> Running
	TransitionSwitched Transition = "switched" // active side changed
	TransitionTicked   Transition = "ticked"   // one second elapsed, still running
	TransitionExpired  Transition = "expired"  // Running -> GameOver
	TransitionReset    Transition = "reset"    // any -> Idle
)
