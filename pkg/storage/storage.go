// Package storage persists session snapshots.
package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-crew/pkg/state"
)

// Storage caches session snapshots between requests.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Snapshot operations. LoadSnapshot returns nil, nil when the session
	// is unknown or has expired.
	SaveSnapshot(ctx context.Context, id uuid.UUID, snap *state.Snapshot) error
	LoadSnapshot(ctx context.Context, id uuid.UUID) (*state.Snapshot, error)
	DeleteSnapshot(ctx context.Context, id uuid.UUID) error
}
