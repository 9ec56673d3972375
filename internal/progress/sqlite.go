package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Programeerchacho/qr-speurtocht-sijsjesberg/internal/engine"
)

// SQLite stores slots in the progress_slots table created by the migrations.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Get(ctx context.Context, device string, slot engine.Slot) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM progress_slots WHERE device_id = ? AND slot = ?`,
		device, string(slot),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s/%s: %w", device, slot, err)
	}
	return value, true, nil
}

func (s *SQLite) Set(ctx context.Context, device string, slot engine.Slot, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO progress_slots (device_id, slot, value) VALUES (?, ?, ?)
		 ON CONFLICT(device_id, slot) DO UPDATE SET
		     value = excluded.value,
		     updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`,
		device, string(slot), value,
	)
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", device, slot, err)
	}
	return nil
}

func (s *SQLite) Clear(ctx context.Context, device string, slot engine.Slot) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM progress_slots WHERE device_id = ? AND slot = ?`,
		device, string(slot),
	)
	if err != nil {
		return fmt.Errorf("clear %s/%s: %w", device, slot, err)
	}
	return nil
}

func (s *SQLite) Check(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Devices lists every device with at least one stored slot.
func (s *SQLite) Devices(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT device_id FROM progress_slots ORDER BY device_id`)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var devices []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		devices = append(devices, id)
	}
	return devices, rows.Err()
}
