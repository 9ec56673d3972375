package engine

import "fmt"

// State is a state of the progression state machine.
type State int

const (
	// Scanning waits for the next checkpoint (or finish) code.
	Scanning State = iota
	// TaskActive shows the challenge of the current checkpoint.
	TaskActive
	// AwaitingPuzzleScan waits for the assembled puzzle QR.
	AwaitingPuzzleScan
	// Navigating shows directions after a completed checkpoint.
	Navigating
	// Finished is terminal until a reset.
	Finished
)

var stateNames = [...]string{
	Scanning:           "scanning",
	TaskActive:         "task_active",
	AwaitingPuzzleScan: "awaiting_puzzle_scan",
	Navigating:         "navigating",
	Finished:           "finished",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", b)
}

// AcceptsScan reports whether the scan source should be running in s.
func (s State) AcceptsScan() bool {
	return s == Scanning || s == AwaitingPuzzleScan
}

// Session is the mutable progress of one participant. Only the first three
// fields are persisted.
type Session struct {
	ExpectedNext        string `json:"expectedNext"`
	CompletedCount      int    `json:"completedCount"`
	HintsUsedTotal      int    `json:"hintsUsedTotal"`
	CurrentCheckpointID string `json:"currentCheckpointId,omitempty"`
	CurrentAttempts     int    `json:"currentAttempts"`
	CurrentHintRevealed bool   `json:"currentHintRevealed"`
	AwaitingPuzzleScan  bool   `json:"awaitingPuzzleScan"`
}

// leaveCheckpoint clears the per-checkpoint fields.
func (s *Session) leaveCheckpoint() {
	s.CurrentCheckpointID = ""
	s.CurrentAttempts = 0
	s.CurrentHintRevealed = false
	s.AwaitingPuzzleScan = false
}
