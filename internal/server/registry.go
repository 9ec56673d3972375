package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/engine"
	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/progress"
	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/route"
	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/scan"
)

// Device is one participant: an engine, the scan feed its websocket pushes
// into and the pump between them.
type Device struct {
	ID     string
	Engine *engine.Engine
	Feed   *scan.Feed

	cancel context.CancelFunc
	done   chan struct{}
}

// ActiveRoute is the route every device plays, or the reason there is none.
type ActiveRoute struct {
	AppName string
	Route   *route.Route
	Err     error
}

// Registry owns the devices and the active route.
type Registry struct {
	backend  progress.Backend
	broker   *Broker
	logger   *slog.Logger
	season   string
	debounce time.Duration

	mu      sync.RWMutex
	active  ActiveRoute
	devices map[string]*Device
}

func NewRegistry(backend progress.Backend, broker *Broker, logger *slog.Logger, season string, debounce time.Duration) *Registry {
	return &Registry{
		backend:  backend,
		broker:   broker,
		logger:   logger,
		season:   season,
		debounce: debounce,
		active:   ActiveRoute{Err: engine.ErrNoRoute},
		devices:  make(map[string]*Device),
	}
}

// Season is the configured season; empty selects the only one.
func (r *Registry) Season() string { return r.season }

// Get returns the device with the given ID, creating and loading it on
// first use.
func (r *Registry) Get(ctx context.Context, id string) (*Device, error) {
	r.mu.RLock()
	d, ok := r.devices[id]
	r.mu.RUnlock()
	if ok {
		return d, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock.
	if d, ok := r.devices[id]; ok {
		return d, nil
	}

	d, err := r.open(ctx, id)
	if err != nil {
		return nil, err
	}
	r.devices[id] = d
	return d, nil
}

func (r *Registry) open(ctx context.Context, id string) (*Device, error) {
	logger := r.logger.With("device", id)
	feed := scan.NewFeed(r.debounce)
	pumpCtx, cancel := context.WithCancel(context.Background())

	notify := engine.Notifiers{
		scan.Arm(pumpCtx, feed, logger),
		engine.NotifierFunc(func(ev engine.Event) { r.broker.Publish(id, ev) }),
	}
	eng := engine.New(progress.ForDevice(r.backend, id), logger, notify)

	d := &Device{ID: id, Engine: eng, Feed: feed, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(d.done)
		scan.Run(pumpCtx, feed, eng, logger)
	}()

	if _, err := eng.Load(ctx, r.active.Route); err != nil {
		d.stop()
		return nil, fmt.Errorf("loading device %q: %w", id, err)
	}
	logger.Info("device opened")
	return d, nil
}

func (d *Device) stop() {
	d.cancel()
	<-d.done
	d.Feed.Stop()
}

// Activate selects the configured season of def and reloads every device
// with it. On failure the route is unloaded and the error recorded.
func (r *Registry) Activate(ctx context.Context, def *route.Definition) error {
	rt, err := def.Active(r.season)
	if err != nil {
		r.Fail(ctx, err)
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = ActiveRoute{AppName: def.AppName, Route: rt}
	r.logger.Info("route activated", "season", rt.Season, "title", rt.Title, "checkpoints", rt.Len())
	return r.reloadLocked(ctx)
}

// Fail unloads the route; devices refuse to leave Scanning until a route is
// activated again.
func (r *Registry) Fail(ctx context.Context, cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = ActiveRoute{Err: cause}
	r.logger.Error("no usable route", "error", cause)
	if err := r.reloadLocked(ctx); err != nil {
		r.logger.Error("unloading devices", "error", err)
	}
}

func (r *Registry) reloadLocked(ctx context.Context) error {
	var errs []error
	for id, d := range r.devices {
		if _, err := d.Engine.Load(ctx, r.active.Route); err != nil {
			errs = append(errs, fmt.Errorf("device %q: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// Active returns the active route.
func (r *Registry) Active() ActiveRoute {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// IDs returns the IDs of the open devices, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.devices))
	for id := range r.devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, d := range r.devices {
		d.stop()
		delete(r.devices, id)
	}
	return nil
}
