// Package progress stores engine session slots per device. Every backend
// keeps the same contract: an absent slot reads as ok == false, never as an
// error, and devices never see each other's slots.
package progress

import (
	"context"

	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/engine"
)

// Backend holds the slots of many devices.
type Backend interface {
	Get(ctx context.Context, device string, slot engine.Slot) (string, bool, error)
	Set(ctx context.Context, device string, slot engine.Slot, value string) error
	Clear(ctx context.Context, device string, slot engine.Slot) error
	// Check reports whether the backend is reachable.
	Check(ctx context.Context) error
}

// DeviceStore is the engine.Store of one device.
type DeviceStore struct {
	backend Backend
	device  string
}

// ForDevice scopes b to device.
func ForDevice(b Backend, device string) *DeviceStore {
	return &DeviceStore{backend: b, device: device}
}

func (s *DeviceStore) Get(ctx context.Context, slot engine.Slot) (string, bool, error) {
	return s.backend.Get(ctx, s.device, slot)
}

func (s *DeviceStore) Set(ctx context.Context, slot engine.Slot, value string) error {
	return s.backend.Set(ctx, s.device, slot, value)
}

func (s *DeviceStore) Clear(ctx context.Context, slot engine.Slot) error {
	return s.backend.Clear(ctx, s.device, slot)
}
