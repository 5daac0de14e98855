package process

// State represents the lifecycle state of a supervised process.
type State string

// Supervisor states.
const (
	StateStarting State = "starting" // Spawned, no output seen yet
	StateRunning  State = "running"  // Output stream opened
	StateStopping State = "stopping" // Stop requested, waiting for exit
	StateStopped  State = "stopped"  // Exited after a clean run or a stop request
	StateFailed   State = "failed"   // Exited with an unexpected error
)

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateStopped || s == StateFailed
}
