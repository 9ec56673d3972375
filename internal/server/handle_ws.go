package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/engine"
	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/scan"
)

// handleWS connects a scanning client. Inbound text frames are decoded QR
// codes fed to the device's scan feed; outbound frames are engine events.
func handleWS(logger *slog.Logger, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d := deviceFrom(r)
		logger := logger.With("device", d.ID)

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ch := broker.Subscribe(d.ID)
		defer broker.Unsubscribe(d.ID, ch)

		g, ctx := errgroup.WithContext(r.Context())

		g.Go(func() error {
			snapshot := d.Engine.Snapshot()
			if err := writeEvent(ctx, conn, snapshot); err != nil {
				return err
			}
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case data := <-ch:
					if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
						return err
					}
				}
			}
		})

		g.Go(func() error {
			for {
				typ, msg, err := conn.Read(ctx)
				if err != nil {
					return err
				}
				if typ != websocket.MessageText {
					continue
				}
				err = d.Feed.Push(string(msg))
				switch {
				case err == nil:
				case errors.Is(err, scan.ErrDuplicate):
					logger.Debug("duplicate scan dropped")
				default:
					ev := d.Engine.Snapshot()
					ev.Kind = engine.EventScanIgnored
					ev.Error = err.Error()
					broker.Publish(d.ID, ev)
				}
			}
		})

		err = g.Wait()
		if status := websocket.CloseStatus(err); status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			return
		}
		logger.Debug("websocket closed", "error", err)
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, ev engine.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
