package engine

import (
	"slices"

	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/route"
)

// EventKind says what happened.
type EventKind string

const (
	EventReady               EventKind = "ready"
	EventTaskShown           EventKind = "task_shown"
	EventAnswerRejected      EventKind = "answer_rejected"
	EventAttemptsExhausted   EventKind = "attempts_exhausted"
	EventHintRevealed        EventKind = "hint_revealed"
	EventPuzzleScanRequested EventKind = "puzzle_scan_requested"
	EventPuzzleMismatch      EventKind = "puzzle_mismatch"
	EventCheckpointCompleted EventKind = "checkpoint_completed"
	EventFinished            EventKind = "finished"
	EventScanRejected        EventKind = "scan_rejected"
	EventScanIgnored         EventKind = "scan_ignored"
	EventReset               EventKind = "reset"
	EventState               EventKind = "state"
)

// Event carries everything a presentation layer needs to render the session
// after a transition.
type Event struct {
	Kind              EventKind       `json:"kind"`
	State             State           `json:"state"`
	Checkpoint        *CheckpointView `json:"checkpoint,omitempty"`
	AttemptsRemaining *int            `json:"attemptsRemaining,omitempty"`
	Locked            bool            `json:"locked,omitempty"`
	Hint              string          `json:"hint,omitempty"`
	Navigation        *NavigationView `json:"navigation,omitempty"`
	Outcome           *Outcome        `json:"outcome,omitempty"`
	Progress          Progress        `json:"progress"`
	HintsUsed         int             `json:"hintsUsed"`
	Expected          string          `json:"expected,omitempty"`
	Error             string          `json:"error,omitempty"`
}

// CheckpointView is the visible part of the active checkpoint. The answer is
// never included.
type CheckpointView struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Question    string   `json:"question"`
	Image       string   `json:"image,omitempty"`
	Choices     []string `json:"choices,omitempty"`
	InputLabel  string   `json:"inputLabel,omitempty"`
	Pieces      int      `json:"pieces,omitempty"`
	Tip         string   `json:"tip,omitempty"`
	MaxAttempts int      `json:"maxAttempts,omitempty"`
	HasHint     bool     `json:"hasHint"`
}

type NavigationView struct {
	Text  string `json:"text"`
	Image string `json:"image,omitempty"`
}

// Progress is completed/total with Fraction in [0, 1].
type Progress struct {
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Fraction  float64 `json:"fraction"`
}

func viewOf(cp *route.Checkpoint) *CheckpointView {
	p := cp.Task.Describe()
	v := &CheckpointView{
		ID:          cp.ID,
		Type:        string(cp.Task.Kind()),
		Question:    p.Question,
		Image:       p.Image,
		MaxAttempts: route.AttemptLimit(cp.Task),
		HasHint:     cp.Hint != "",
	}
	switch t := cp.Task.(type) {
	case route.TextTask:
		v.InputLabel = t.InputLabel
	case route.SearchCodeTask:
		v.InputLabel = t.InputLabel
	case route.ChoiceTask:
		v.Choices = slices.Clone(t.Choices)
	case route.PuzzleTask:
		v.Pieces = t.Pieces
		v.Tip = t.Tip
	}
	return v
}

func progressOf(completed, total int) Progress {
	p := Progress{Completed: completed, Total: total}
	if total > 0 {
		p.Fraction = float64(completed) / float64(total)
	}
	return p
}

// Notifier receives every event the engine produces, in the order of the
// transitions, after the engine has released its state lock. A notifier may
// read the engine but must not call an operation that changes it.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(ev Event) { f(ev) }

// Notifiers fans an event out in order.
type Notifiers []Notifier

func (ns Notifiers) Notify(ev Event) {
	for _, n := range ns {
		if n != nil {
			n.Notify(ev)
		}
	}
}
