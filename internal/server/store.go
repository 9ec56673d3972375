package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

const activeRouteID = "active"

// RouteStore keeps the active route document as JSONB in route_documents.
type RouteStore struct {
	db *sql.DB
}

func NewRouteStore(db *sql.DB) *RouteStore {
	return &RouteStore{db: db}
}

// Get returns the stored document as JSON text.
func (s *RouteStore) Get(ctx context.Context) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM route_documents WHERE id = ?`, activeRouteID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading route document: %w", err)
	}
	return []byte(data), nil
}

// Put replaces the stored document. doc must be valid JSON.
func (s *RouteStore) Put(ctx context.Context, doc []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO route_documents (id, data) VALUES (?, jsonb(?))
		 ON CONFLICT(id) DO UPDATE SET
		     data = excluded.data,
		     updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`,
		activeRouteID, string(doc),
	)
	if err != nil {
		return fmt.Errorf("writing route document: %w", err)
	}
	return nil
}

func (s *RouteStore) Check(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
