package engine

import (
	"errors"
	"fmt"
)

var (
	ErrNoRoute         = errors.New("no route loaded")
	ErrScanIgnored     = errors.New("scan not expected")
	ErrUnexpectedEvent = errors.New("unexpected event")
	ErrPuzzleNeedsScan = errors.New("puzzle is completed by scanning its code")
	ErrNoHint          = errors.New("checkpoint has no hint")
)

// UnrecognizedCodeError is returned for a scan that matches no checkpoint.
type UnrecognizedCodeError struct {
	Code string
}

func (e *UnrecognizedCodeError) Error() string {
	return fmt.Sprintf("code %q is not part of this route", e.Code)
}

// OutOfOrderError is returned for a known code scanned before its turn.
// Scanned is "finish" for an early finish code.
type OutOfOrderError struct {
	Scanned  string
	Expected string
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("scanned checkpoint %s, expected %s", e.Scanned, e.Expected)
}

// PuzzleMismatchError is returned when the puzzle scan does not match.
type PuzzleMismatchError struct {
	CheckpointID string
	Code         string
}

func (e *PuzzleMismatchError) Error() string {
	return fmt.Sprintf("code %q does not solve the puzzle of checkpoint %s", e.Code, e.CheckpointID)
}

// AttemptsExhaustedError is returned by the submission that uses up the
// attempt budget and by every submission after it.
type AttemptsExhaustedError struct {
	CheckpointID string
	MaxAttempts  int
}

func (e *AttemptsExhaustedError) Error() string {
	return fmt.Sprintf("checkpoint %s: all %d attempts used", e.CheckpointID, e.MaxAttempts)
}

func unexpected(op string, s State) error {
	return fmt.Errorf("%s in state %s: %w", op, s, ErrUnexpectedEvent)
}
