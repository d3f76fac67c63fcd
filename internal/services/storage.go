package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/kmarlowe/frontier-engine/pkg/session"
)

// HealthChecker defines basic health check capabilities
type HealthChecker interface {
	// Ping tests the service connection
	Ping(ctx context.Context) error
}

// Closer defines cleanup capabilities
type Closer interface {
	// Close closes the service connection
	Close() error
}

// Storage defines the interface for session persistence. Snapshots are
// written fire-and-forget after each dispatch; the reducer itself knows
// nothing about persistence.
type Storage interface {
	HealthChecker
	Closer

	// SaveSession snapshots a session
	SaveSession(ctx context.Context, s *session.Session) error

	// LoadSession retrieves a session by ID.
	// Returns nil if the session doesn't exist.
	LoadSession(ctx context.Context, id uuid.UUID) (*session.Session, error)

	// DeleteSession removes a session by ID
	DeleteSession(ctx context.Context, id uuid.UUID) error
}
