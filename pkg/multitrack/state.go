// ABOUTME: Transport state of a track group
// ABOUTME: Stopped, playing or paused with lowercase names
package multitrack

// State is the group transport state
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

// String returns the lowercase state name
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}
