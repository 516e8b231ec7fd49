package commission

import (
	"testing"

	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculator_Calculate(t *testing.T) {
	calc := NewCalculator()

	tests := []struct {
		name              string
		input             Input
		wantCommission    string
		wantPerSession    string
		wantRemainingVal  string
		wantTotalSessions int
	}{
		{
			name: "percentage",
			input: Input{
				Type:              types.CommissionTypePercentage,
				Value:             decimal.NewFromInt(10),
				BaseAmount:        decimal.NewFromInt(10000),
				SessionsRemaining: 20,
			},
			wantCommission:    "1000",
			wantPerSession:    "50",
			wantRemainingVal:  "1000",
			wantTotalSessions: 20,
		},
		{
			name: "percentage_with_used_sessions",
			input: Input{
				Type:              types.CommissionTypePercentage,
				Value:             decimal.NewFromInt(10),
				BaseAmount:        decimal.NewFromInt(10000),
				SessionsRemaining: 12,
				SessionsUsed:      8,
			},
			wantCommission:    "1000",
			wantPerSession:    "50",
			wantRemainingVal:  "600",
			wantTotalSessions: 20,
		},
		{
			name: "fixed_amount",
			input: Input{
				Type:              types.CommissionTypeFixedAmount,
				Value:             decimal.NewFromInt(1000),
				SessionsRemaining: 3,
			},
			wantCommission:    "1000",
			wantPerSession:    "333.33",
			wantRemainingVal:  "1000",
			wantTotalSessions: 3,
		},
		{
			name: "per_session",
			input: Input{
				Type:              types.CommissionTypePerSession,
				Value:             decimal.NewFromInt(75),
				SessionsRemaining: 6,
				SessionsUsed:      4,
			},
			wantCommission:    "750",
			wantPerSession:    "75",
			wantRemainingVal:  "450",
			wantTotalSessions: 10,
		},
		{
			name: "max_bound_clamps",
			input: Input{
				Type:              types.CommissionTypePercentage,
				Value:             decimal.NewFromInt(20),
				BaseAmount:        decimal.NewFromInt(10000),
				SessionsRemaining: 10,
				MaxAmount:         decimal.NewNullDecimal(decimal.NewFromInt(1500)),
			},
			wantCommission:    "1500",
			wantPerSession:    "150",
			wantRemainingVal:  "1500",
			wantTotalSessions: 10,
		},
		{
			name: "min_bound_clamps",
			input: Input{
				Type:              types.CommissionTypePerSession,
				Value:             decimal.NewFromInt(10),
				SessionsRemaining: 5,
				MinAmount:         decimal.NewNullDecimal(decimal.NewFromInt(100)),
			},
			wantCommission:    "100",
			wantPerSession:    "20",
			wantRemainingVal:  "100",
			wantTotalSessions: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.Calculate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotalSessions, got.TotalSessions)
			assert.True(t, decimal.RequireFromString(tt.wantCommission).Equal(got.Commission), "commission: got %s", got.Commission)
			assert.True(t, decimal.RequireFromString(tt.wantPerSession).Equal(got.PerSession), "per session: got %s", got.PerSession)
			assert.True(t, decimal.RequireFromString(tt.wantRemainingVal).Equal(got.RemainingValue), "remaining value: got %s", got.RemainingValue)
		})
	}
}

func TestCalculator_InvalidCommission(t *testing.T) {
	calc := NewCalculator()

	_, err := calc.Calculate(Input{
		Type:       types.CommissionTypePercentage,
		Value:      decimal.NewFromInt(10),
		BaseAmount: decimal.NewFromInt(10000),
	})
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidCommission(err), "zero sessions")

	_, err = calc.Calculate(Input{
		Type:              types.CommissionTypeFixedAmount,
		Value:             decimal.Zero,
		SessionsRemaining: 10,
	})
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidCommission(err), "zero value")

	_, err = calc.Calculate(Input{
		Type:              types.CommissionTypePerSession,
		Value:             decimal.NewFromInt(-5),
		SessionsRemaining: 10,
	})
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidCommission(err), "negative value")
}

func TestCalculator_Deterministic(t *testing.T) {
	in := Input{
		Type:              types.CommissionTypePercentage,
		Value:             decimal.RequireFromString("12.5"),
		BaseAmount:        decimal.RequireFromString("7999.99"),
		SessionsRemaining: 7,
		SessionsUsed:      5,
	}
	first, err := NewCalculator().Calculate(in)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := NewCalculator().Calculate(in)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRule_Validate(t *testing.T) {
	r := &Rule{
		TrainerID:       "trn_1",
		PackageID:       "pkg_1",
		MemberID:        "mem_1",
		CommissionType:  types.CommissionTypePercentage,
		CommissionValue: decimal.NewFromInt(10),
	}
	assert.NoError(t, r.Validate())

	r.MinAmount = decimal.NewNullDecimal(decimal.NewFromInt(500))
	r.MaxAmount = decimal.NewNullDecimal(decimal.NewFromInt(100))
	assert.True(t, ierr.IsInvalidCommission(r.Validate()))
}
