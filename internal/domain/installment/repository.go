package installment

import (
	"context"
	"time"

	"github.com/flexprice/flexgym/internal/types"
)

// Repository defines the interface for payment plan persistence operations
type Repository interface {
	// CreatePlan stores the plan together with its installments
	CreatePlan(ctx context.Context, p *Plan) error
	// GetPlan returns the plan with its installments ordered by number
	GetPlan(ctx context.Context, id string) (*Plan, error)
	UpdatePlanStatus(ctx context.Context, id string, status types.PaymentPlanStatus) error
	MarkInstallmentPaid(ctx context.Context, planID string, number int, paymentID string, paidAt time.Time) error
	MarkInstallmentUnpaid(ctx context.Context, planID string, number int) error
}
