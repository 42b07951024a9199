package scheduler

// State of one task.
//
//	idle ──► armed ──► running ──► armed
//	  │                   │
//	  └──────► running ───┴──► idle
//
// armed means a timer is pending; a disabled task rests in idle and can
// still be triggered by hand.
type State string

const (
	StateIdle    State = "idle"
	StateArmed   State = "armed"
	StateRunning State = "running"
)

var validTransitions = map[State][]State{
	StateIdle:    {StateArmed, StateRunning},
	StateArmed:   {StateRunning, StateIdle},
	StateRunning: {StateArmed, StateIdle},
}

// IsTransitionAllowed reports whether a task may move from → to.
func IsTransitionAllowed(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
