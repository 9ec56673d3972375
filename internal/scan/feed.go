package scan

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrStopped   = errors.New("scanner stopped")
	ErrDuplicate = errors.New("duplicate scan")
	ErrBusy      = errors.New("previous scan not consumed")
)

// Feed is a Source fed by pushes from outside, such as a websocket client
// or a camera loop. It delivers at most one scan per Start and drops a
// repeat of the last text within the debounce window.
type Feed struct {
	debounce time.Duration
	now      func() time.Time
	out      chan string

	mu      sync.Mutex
	running bool
	last    string
	lastAt  time.Time
}

func NewFeed(debounce time.Duration) *Feed {
	return &Feed{
		debounce: debounce,
		now:      time.Now,
		out:      make(chan string, 1),
	}
}

func (f *Feed) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = true
	return nil
}

// Stop halts delivery and discards an undelivered scan.
func (f *Feed) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
	select {
	case <-f.out:
	default:
	}
	return nil
}

func (f *Feed) Scans() <-chan string { return f.out }

// Running reports whether the next push would be accepted.
func (f *Feed) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// Push offers one decoded scan. A delivered scan stops the feed until the
// next Start.
func (f *Feed) Push(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.running {
		return ErrStopped
	}
	now := f.now()
	if text == f.last && now.Sub(f.lastAt) < f.debounce {
		return ErrDuplicate
	}
	select {
	case f.out <- text:
	default:
		return ErrBusy
	}
	f.running = false
	f.last = text
	f.lastAt = now
	return nil
}
