package progress

import (
	"context"
	"sync"

	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/engine"
)

type slotKey struct {
	device string
	slot   engine.Slot
}

// Memory keeps slots in process memory. Nothing survives a restart.
type Memory struct {
	mu    sync.RWMutex
	slots map[slotKey]string
}

func NewMemory() *Memory {
	return &Memory{slots: make(map[slotKey]string)}
}

func (m *Memory) Get(_ context.Context, device string, slot engine.Slot) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.slots[slotKey{device, slot}]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, device string, slot engine.Slot, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slotKey{device, slot}] = value
	return nil
}

func (m *Memory) Clear(_ context.Context, device string, slot engine.Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, slotKey{device, slot})
	return nil
}

func (m *Memory) Check(context.Context) error { return nil }
