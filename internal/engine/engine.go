// Package engine implements checkpoint progression: visiting order, answer
// checking, attempt and hint budgets, resumable progress and the finish
// outcome. One Engine serves one participant.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/route"
)

// Engine is safe for concurrent use; operations are serialized and each one
// completes its durable write before returning.
type Engine struct {
	store  Store
	logger *slog.Logger
	notify Notifier

	// emitMu is taken before mu is released so notifiers see events in
	// the order the state changed.
	emitMu sync.Mutex

	mu      sync.Mutex
	route   *route.Route
	state   State
	session Session
	nav     *route.Navigation
	outcome *Outcome
}

// New returns an engine without a route. Until Load succeeds every
// operation fails with ErrNoRoute. notify may be nil.
func New(store Store, logger *slog.Logger, notify Notifier) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger, notify: notify}
}

// Load installs rt and restores the persisted session. A nil rt unloads the
// route. Unusable persisted values are logged and replaced by defaults.
func (e *Engine) Load(ctx context.Context, rt *route.Route) (Event, error) {
	return e.do(func() (Event, error) { return e.load(ctx, rt) })
}

func (e *Engine) load(ctx context.Context, rt *route.Route) (Event, error) {
	e.route = nil
	e.state = Scanning
	e.session = Session{}
	e.nav = nil
	e.outcome = nil
	if rt == nil {
		return e.event(EventReady), nil
	}

	s := Session{ExpectedNext: rt.Intro.Start}

	hints, err := e.readInt(ctx, SlotHintsUsed)
	if err != nil {
		return Event{}, err
	}
	s.HintsUsedTotal = hints

	completed, err := e.readInt(ctx, SlotCompleted)
	if err != nil {
		return Event{}, err
	}
	if completed > rt.Len() {
		e.logger.Warn("completed count exceeds route size", "completed", completed, "total", rt.Len())
		completed = rt.Len()
	}
	s.CompletedCount = completed

	expected, ok, err := e.store.Get(ctx, SlotExpectedNext)
	if err != nil {
		return Event{}, fmt.Errorf("restore %s: %w", SlotExpectedNext, err)
	}
	if ok && expected != "" {
		if _, known := rt.CheckpointByID(expected); known || expected == route.FinishID {
			s.ExpectedNext = expected
		} else {
			e.logger.Warn("stored checkpoint not in route, starting over", "expected", expected, "start", rt.Intro.Start)
		}
	}

	e.route = rt
	e.session = s
	e.logger.Info("session restored",
		"season", rt.Season,
		"expected", s.ExpectedNext,
		"completed", s.CompletedCount,
		"hints_used", s.HintsUsedTotal,
	)
	return e.event(EventReady), nil
}

func (e *Engine) readInt(ctx context.Context, slot Slot) (int, error) {
	raw, ok, err := e.store.Get(ctx, slot)
	if err != nil {
		return 0, fmt.Errorf("restore %s: %w", slot, err)
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		e.logger.Warn("ignoring stored value", "slot", slot, "value", raw)
		return 0, nil
	}
	return n, nil
}

// Scan feeds decoded QR text into the engine.
func (e *Engine) Scan(ctx context.Context, code string) (Event, error) {
	return e.do(func() (Event, error) {
		if e.route == nil {
			return e.rejected(EventScanRejected, ErrNoRoute)
		}
		switch e.state {
		case Scanning:
			return e.scanCheckpoint(ctx, code)
		case AwaitingPuzzleScan:
			return e.scanPuzzle(ctx, code)
		}
		return e.rejected(EventScanIgnored, fmt.Errorf("%w in state %s", ErrScanIgnored, e.state))
	})
}

func (e *Engine) scanCheckpoint(ctx context.Context, code string) (Event, error) {
	s := e.session
	if e.route.IsFinishCode(code) {
		if s.ExpectedNext == route.FinishID {
			return e.finish(), nil
		}
		return e.rejected(EventScanRejected, &OutOfOrderError{Scanned: route.FinishID, Expected: s.ExpectedNext})
	}

	cp, ok := e.route.CheckpointByQR(code)
	if !ok {
		return e.rejected(EventScanRejected, &UnrecognizedCodeError{Code: code})
	}
	if cp.ID != s.ExpectedNext {
		return e.rejected(EventScanRejected, &OutOfOrderError{Scanned: cp.ID, Expected: s.ExpectedNext})
	}

	s.leaveCheckpoint()
	s.CurrentCheckpointID = cp.ID
	e.session = s
	e.state = TaskActive
	e.logger.Info("checkpoint opened", "checkpoint", cp.ID)
	return e.event(EventTaskShown), nil
}

func (e *Engine) scanPuzzle(ctx context.Context, code string) (Event, error) {
	cp := e.current()
	task, ok := cp.Task.(route.PuzzleTask)
	if ok && SolvesPuzzle(task, code) {
		return e.complete(ctx, cp)
	}

	e.session.AwaitingPuzzleScan = false
	e.state = TaskActive
	return e.rejected(EventPuzzleMismatch, &PuzzleMismatchError{CheckpointID: cp.ID, Code: code})
}

// Submit checks a typed answer for the active checkpoint. A wrong answer is
// not an error; it is reported as an answer_rejected event.
func (e *Engine) Submit(ctx context.Context, input string) (Event, error) {
	return e.do(func() (Event, error) {
		if e.route == nil {
			return Event{}, ErrNoRoute
		}
		if e.state != TaskActive {
			return Event{}, unexpected("submit", e.state)
		}
		cp := e.current()
		if cp.Task.Kind() == route.TaskPuzzle {
			return e.rejected(EventAnswerRejected, ErrPuzzleNeedsScan)
		}

		limit := route.AttemptLimit(cp.Task)
		if limit > 0 && e.session.CurrentAttempts >= limit {
			return e.rejected(EventAttemptsExhausted, &AttemptsExhaustedError{CheckpointID: cp.ID, MaxAttempts: limit})
		}
		if Validate(cp.Task, cp.Answer, input) {
			return e.complete(ctx, cp)
		}

		s := e.session
		s.CurrentAttempts++
		if limit == 0 || s.CurrentAttempts < limit {
			e.session = s
			return e.event(EventAnswerRejected), nil
		}

		if !s.CurrentHintRevealed && cp.Hint != "" {
			s.CurrentHintRevealed = true
			s.HintsUsedTotal++
			if err := e.store.Set(ctx, SlotHintsUsed, strconv.Itoa(s.HintsUsedTotal)); err != nil {
				return Event{}, fmt.Errorf("persist %s: %w", SlotHintsUsed, err)
			}
		}
		e.session = s
		e.logger.Info("attempts exhausted", "checkpoint", cp.ID, "max_attempts", limit, "hints_used", s.HintsUsedTotal)
		return e.rejected(EventAttemptsExhausted, &AttemptsExhaustedError{CheckpointID: cp.ID, MaxAttempts: limit})
	})
}

// RequestPuzzleScan arms the scanner for the puzzle QR of the active
// checkpoint.
func (e *Engine) RequestPuzzleScan(ctx context.Context) (Event, error) {
	return e.do(func() (Event, error) {
		if e.route == nil {
			return Event{}, ErrNoRoute
		}
		if e.state != TaskActive || e.current().Task.Kind() != route.TaskPuzzle {
			return Event{}, unexpected("puzzle scan", e.state)
		}
		e.session.AwaitingPuzzleScan = true
		e.state = AwaitingPuzzleScan
		return e.event(EventPuzzleScanRequested), nil
	})
}

// RequestHint reveals the hint of the active checkpoint. It counts once per
// checkpoint; repeated calls return the same hint without counting.
func (e *Engine) RequestHint(ctx context.Context) (Event, error) {
	return e.do(func() (Event, error) {
		if e.route == nil {
			return Event{}, ErrNoRoute
		}
		if e.state != TaskActive {
			return Event{}, unexpected("hint", e.state)
		}
		cp := e.current()
		if e.session.CurrentHintRevealed {
			return e.event(EventHintRevealed), nil
		}
		if cp.Hint == "" {
			return e.rejected(EventState, ErrNoHint)
		}

		s := e.session
		s.CurrentHintRevealed = true
		s.HintsUsedTotal++
		if err := e.store.Set(ctx, SlotHintsUsed, strconv.Itoa(s.HintsUsedTotal)); err != nil {
			return Event{}, fmt.Errorf("persist %s: %w", SlotHintsUsed, err)
		}
		e.session = s
		e.logger.Info("hint revealed", "checkpoint", cp.ID, "hints_used", s.HintsUsedTotal)
		return e.event(EventHintRevealed), nil
	})
}

// AcknowledgeNavigation leaves the navigation screen for the next scan. The
// last checkpoint finishes the route directly and never navigates.
func (e *Engine) AcknowledgeNavigation(ctx context.Context) (Event, error) {
	return e.do(func() (Event, error) {
		if e.route == nil {
			return Event{}, ErrNoRoute
		}
		if e.state != Navigating {
			return Event{}, unexpected("continue", e.state)
		}
		e.nav = nil
		e.state = Scanning
		return e.event(EventState), nil
	})
}

// Reset clears the persisted slots and starts the route over. It is valid in
// every state. When a slot cannot be cleared the session and the slots are
// left as they were.
func (e *Engine) Reset(ctx context.Context) (Event, error) {
	return e.do(func() (Event, error) {
		clears := make([]slotWrite, 0, len(Slots))
		for _, slot := range Slots {
			clears = append(clears, slotWrite{slot: slot, clear: true})
		}
		if err := e.apply(ctx, clears...); err != nil {
			return Event{}, err
		}

		e.session = Session{}
		if e.route != nil {
			e.session.ExpectedNext = e.route.Intro.Start
		}
		e.state = Scanning
		e.nav = nil
		e.outcome = nil
		e.logger.Info("session reset")
		return e.event(EventReset), nil
	})
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Session returns a copy of the session.
func (e *Engine) Session() Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// Route returns the loaded route, or nil.
func (e *Engine) Route() *route.Route {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.route
}

// Snapshot describes the current state without changing it.
func (e *Engine) Snapshot() Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.event(EventState)
}

// complete advances past cp. The new session is committed only after the
// durable write succeeded.
func (e *Engine) complete(ctx context.Context, cp *route.Checkpoint) (Event, error) {
	s := e.session
	s.leaveCheckpoint()
	s.CompletedCount = min(s.CompletedCount+1, e.route.Len())
	s.ExpectedNext = cp.Next

	err := e.apply(ctx,
		slotWrite{slot: SlotCompleted, value: strconv.Itoa(s.CompletedCount)},
		slotWrite{slot: SlotExpectedNext, value: s.ExpectedNext},
	)
	if err != nil {
		return Event{}, err
	}

	e.session = s
	e.logger.Info("checkpoint completed", "checkpoint", cp.ID, "next", cp.Next, "completed", s.CompletedCount)
	if cp.IsLast() {
		return e.finish(), nil
	}
	e.nav = cp.Nav
	e.state = Navigating
	return e.event(EventCheckpointCompleted), nil
}

// slotWrite sets a slot to value, or removes it when clear is set.
type slotWrite struct {
	slot  Slot
	value string
	clear bool
}

type priorSlot struct {
	slot  Slot
	value string
	ok    bool
}

// apply performs ws in order. When one fails, the slots already written are
// put back to their previous values so the store never holds half of a
// transition.
func (e *Engine) apply(ctx context.Context, ws ...slotWrite) error {
	done := make([]priorSlot, 0, len(ws))
	for _, w := range ws {
		prev, ok, err := e.store.Get(ctx, w.slot)
		if err != nil {
			e.rollback(ctx, done)
			return fmt.Errorf("read %s: %w", w.slot, err)
		}
		if w.clear {
			err = e.store.Clear(ctx, w.slot)
		} else {
			err = e.store.Set(ctx, w.slot, w.value)
		}
		if err != nil {
			e.rollback(ctx, done)
			if w.clear {
				return fmt.Errorf("clear %s: %w", w.slot, err)
			}
			return fmt.Errorf("persist %s: %w", w.slot, err)
		}
		done = append(done, priorSlot{slot: w.slot, value: prev, ok: ok})
	}
	return nil
}

func (e *Engine) rollback(ctx context.Context, done []priorSlot) {
	for i := len(done) - 1; i >= 0; i-- {
		p := done[i]
		var err error
		if p.ok {
			err = e.store.Set(ctx, p.slot, p.value)
		} else {
			err = e.store.Clear(ctx, p.slot)
		}
		if err != nil {
			e.logger.Error("restoring slot failed", "slot", p.slot, "err", err)
		}
	}
}

func (e *Engine) finish() Event {
	out := ComputeOutcome(e.route, e.session.HintsUsedTotal)
	e.session.leaveCheckpoint()
	e.outcome = &out
	e.nav = nil
	e.state = Finished
	e.logger.Info("route finished", "rewarded", out.Rewarded, "hints_used", out.HintsUsed, "threshold", out.Threshold)
	return e.event(EventFinished)
}

func (e *Engine) current() *route.Checkpoint {
	cp, _ := e.route.CheckpointByID(e.session.CurrentCheckpointID)
	return cp
}

// rejected builds the event for a recoverable failure and returns err with it.
func (e *Engine) rejected(kind EventKind, err error) (Event, error) {
	ev := e.event(kind)
	ev.Error = err.Error()
	e.logger.Debug("event rejected", "kind", kind, "state", e.state, "err", err)
	return ev, err
}

// event describes the current state. The caller holds mu.
func (e *Engine) event(kind EventKind) Event {
	ev := Event{
		Kind:      kind,
		State:     e.state,
		HintsUsed: e.session.HintsUsedTotal,
		Expected:  e.session.ExpectedNext,
	}
	if e.route == nil {
		return ev
	}
	ev.Progress = progressOf(e.session.CompletedCount, e.route.Len())

	switch e.state {
	case TaskActive, AwaitingPuzzleScan:
		cp := e.current()
		if cp == nil {
			break
		}
		ev.Checkpoint = viewOf(cp)
		if limit := route.AttemptLimit(cp.Task); limit > 0 {
			remaining := max(limit-e.session.CurrentAttempts, 0)
			ev.AttemptsRemaining = &remaining
			ev.Locked = remaining == 0
		}
		if e.session.CurrentHintRevealed {
			ev.Hint = cp.Hint
		}
	case Navigating:
		if e.nav != nil {
			ev.Navigation = &NavigationView{Text: e.nav.Text, Image: e.nav.Image}
		}
	case Finished:
		if e.outcome != nil {
			out := *e.outcome
			ev.Outcome = &out
		}
	}
	return ev
}

// do runs fn under mu and notifies outside it, one event at a time.
func (e *Engine) do(fn func() (Event, error)) (Event, error) {
	e.mu.Lock()
	ev, err := fn()
	e.emitMu.Lock()
	e.mu.Unlock()
	defer e.emitMu.Unlock()
	e.emit(ev)
	return ev, err
}

func (e *Engine) emit(ev Event) {
	if e.notify == nil || ev.Kind == "" {
		return
	}
	e.notify.Notify(ev)
}
