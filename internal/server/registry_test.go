package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/engine"
	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/progress"
	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/route"
)

func sampleDefinition(t *testing.T) *route.Definition {
	t.Helper()
	def, err := route.LoadFile("../route/testdata/route.json")
	if err != nil {
		t.Fatalf("load route: %v", err)
	}
	return def
}

func TestRegistryGetReturnsSameDevice(t *testing.T) {
	r := NewRegistry(progress.NewMemory(), NewBroker(), quietLogger(), "", 0)
	t.Cleanup(func() { r.Close() })
	if err := r.Activate(t.Context(), sampleDefinition(t)); err != nil {
		t.Fatalf("activate: %v", err)
	}

	a, err := r.Get(t.Context(), "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, err := r.Get(t.Context(), "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if a != b {
		t.Fatal("expected the same device")
	}
	if ids := r.IDs(); len(ids) != 1 || ids[0] != "a" {
		t.Fatalf("IDs = %v", ids)
	}
}

func TestRegistryFeedDrivesEngine(t *testing.T) {
	broker := NewBroker()
	r := NewRegistry(progress.NewMemory(), broker, quietLogger(), "", 0)
	t.Cleanup(func() { r.Close() })
	if err := r.Activate(t.Context(), sampleDefinition(t)); err != nil {
		t.Fatalf("activate: %v", err)
	}
	d, err := r.Get(t.Context(), "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	ch := broker.Subscribe("a")
	defer broker.Unsubscribe("a", ch)

	if err := d.Feed.Push("SB-ENTREE"); err != nil {
		t.Fatalf("push: %v", err)
	}

	select {
	case data := <-ch:
		var ev engine.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if ev.Kind != engine.EventTaskShown || ev.Checkpoint.ID != "1" {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
	if d.Feed.Running() {
		t.Fatal("feed should stop while a task is shown")
	}
}

func TestRegistryFailUnloadsDevices(t *testing.T) {
	r := NewRegistry(progress.NewMemory(), NewBroker(), quietLogger(), "", 0)
	t.Cleanup(func() { r.Close() })
	if err := r.Activate(t.Context(), sampleDefinition(t)); err != nil {
		t.Fatalf("activate: %v", err)
	}
	d, err := r.Get(t.Context(), "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	r.Fail(t.Context(), engine.ErrNoRoute)
	if d.Engine.Route() != nil {
		t.Fatal("route should be unloaded")
	}
	if active := r.Active(); active.Route != nil || active.Err == nil {
		t.Fatalf("unexpected active route %+v", active)
	}
}

func TestRegistryActivateUnknownSeason(t *testing.T) {
	r := NewRegistry(progress.NewMemory(), NewBroker(), quietLogger(), "herfst", 0)
	t.Cleanup(func() { r.Close() })

	if err := r.Activate(t.Context(), sampleDefinition(t)); err == nil {
		t.Fatal("expected error for unknown season")
	}
	if r.Active().Route != nil {
		t.Fatal("no route should be active")
	}
}

func TestBrokerDropsSlowSubscribers(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("a")
	other := b.Subscribe("b")

	for range 20 {
		b.Publish("a", engine.Event{Kind: engine.EventState})
	}
	if len(ch) != cap(ch) {
		t.Fatalf("buffered = %d, want %d", len(ch), cap(ch))
	}
	if len(other) != 0 {
		t.Fatal("events leaked to another device")
	}

	b.Unsubscribe("a", ch)
	if n := b.Subscribers("a"); n != 0 {
		t.Fatalf("subscribers = %d, want 0", n)
	}
}
