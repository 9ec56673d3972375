// Package scan connects a source of decoded QR text to an engine. A source
// runs only while the engine can use a scan; Arm starts and stops it from
// engine events and Run pumps what it delivers.
package scan

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/engine"
)

// Source produces decoded QR text. Stop must be safe to call when already
// stopped.
type Source interface {
	Start(ctx context.Context) error
	Stop() error
	Scans() <-chan string
}

// Scanner consumes scans; *engine.Engine implements it.
type Scanner interface {
	Scan(ctx context.Context, code string) (engine.Event, error)
}

// Arm returns a notifier that runs src exactly while the engine state
// accepts scans.
func Arm(ctx context.Context, src Source, logger *slog.Logger) engine.Notifier {
	return engine.NotifierFunc(func(ev engine.Event) {
		var err error
		if ev.State.AcceptsScan() {
			err = src.Start(ctx)
		} else {
			err = src.Stop()
		}
		if err != nil {
			logger.Warn("scan source toggle failed", "state", ev.State, "err", err)
		}
	})
}

// Run delivers scans from src to target until ctx is done or the source
// channel is closed. Rejected scans are logged; the engine already reports
// them through its events.
func Run(ctx context.Context, src Source, target Scanner, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case code, ok := <-src.Scans():
			if !ok {
				return nil
			}
			ev, err := target.Scan(ctx, code)
			switch {
			case err == nil:
				logger.Debug("scan accepted", "kind", ev.Kind, "state", ev.State)
			case errors.Is(err, engine.ErrScanIgnored):
				logger.Debug("scan ignored", "state", ev.State)
			default:
				logger.Info("scan rejected", "code", code, "err", err)
			}
		}
	}
}
