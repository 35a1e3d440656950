package identifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewKeepsLegacyShape(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		prefix string
	}{
		{"customer", NewCustomerID(), "CUST-"},
		{"loan", NewLoanID(), "LOAN-"},
		{"payment", NewPaymentID(), "PAY-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, strings.HasPrefix(tt.id, tt.prefix))
			assert.True(t, Valid(tt.id), "id %q should match the canonical shape", tt.id)
		})
	}
}

func TestNewProducesDistinctIDs(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := NewPaymentID()
		_, dup := seen[id]
		assert.False(t, dup, "duplicate id generated: %s", id)
		seen[id] = struct{}{}
	}
}

func TestValidRejectsForeignShapes(t *testing.T) {
	for _, id := range []string{
		"",
		"CUST-123-abc",
		"ORDER-1716212345678-k3j9x2m1q",
		"LOAN-1716212345678-K3J9X2M1Q",
		"PAY-1716212345678-k3j9x2m1",
	} {
		assert.False(t, Valid(id), "id %q should be rejected", id)
	}
}
