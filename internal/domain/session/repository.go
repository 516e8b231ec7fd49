package session

import (
	"context"
	"time"

	"github.com/flexprice/flexgym/internal/types"
)

// Repository defines the interface for session persistence operations.
// The store rejects overlapping non cancelled sessions of one trainer with
// ErrConflict, on create and on trainer reassignment.
type Repository interface {
	FindConflicting(ctx context.Context, trainerID string, date time.Time, start, end types.TimeOfDay) ([]*Session, error)
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, id string, patch Patch) (*Session, error)
	// ListReassignable returns sessions of the membership with trainerID on or
	// after from that are neither completed nor cancelled
	ListReassignable(ctx context.Context, membershipID, trainerID string, from time.Time) ([]*Session, error)
	ListByMembership(ctx context.Context, membershipID string) ([]*Session, error)
}
