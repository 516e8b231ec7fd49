package idempotency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKeyIsStable(t *testing.T) {
	g := NewGenerator()
	params := map[string]interface{}{"membership_id": "mbr_1", "change_date": "2025-03-01"}

	a := g.GenerateKey(ScopeTransferFee, params)
	b := g.GenerateKey(ScopeTransferFee, map[string]interface{}{"change_date": "2025-03-01", "membership_id": "mbr_1"})
	assert.Equal(t, a, b)
	assert.Contains(t, a, "transfer_fee-")
	assert.True(t, g.ValidateKey(ScopeTransferFee, params, a))

	assert.NotEqual(t, a, g.GenerateKey(ScopeTransferSurplus, params))
	assert.NotEqual(t, a, g.GenerateKey(ScopeTransferFee, map[string]interface{}{"membership_id": "mbr_2", "change_date": "2025-03-01"}))
}
