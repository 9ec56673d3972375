package engine

import "context"

// Slot names one persisted session field.
type Slot string

const (
	SlotHintsUsed    Slot = "hints_used"
	SlotCompleted    Slot = "completed"
	SlotExpectedNext Slot = "expected_next"
)

// Slots lists every persisted slot.
var Slots = []Slot{SlotHintsUsed, SlotCompleted, SlotExpectedNext}

// Store persists the session slots of one participant. A slot that was never
// written (or was cleared) reports ok == false and no error.
type Store interface {
	Get(ctx context.Context, slot Slot) (value string, ok bool, err error)
	Set(ctx context.Context, slot Slot, value string) error
	Clear(ctx context.Context, slot Slot) error
}
