package member

import (
	"context"

	"github.com/flexprice/flexgym/internal/types"
)

// Repository defines the interface for member persistence operations
type Repository interface {
	// CreateIdentity stores a new member and returns its id
	CreateIdentity(ctx context.Context, m *Member) (string, error)
	Get(ctx context.Context, id string) (*Member, error)
	// UpdateStatus sets the status and the membership responsible for it,
	// an empty membership id clears the link
	UpdateStatus(ctx context.Context, id string, status types.MemberStatus, membershipID string) error
	// Archive soft deletes a member, used to undo CreateIdentity
	Archive(ctx context.Context, id string) error
}
