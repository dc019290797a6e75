package domain_test

import (
	"testing"

	"github.com/SscSPs/smartlens_backend/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", domain.NormalizeEmail("  User@Example.COM \n"))
	assert.Equal(t, "", domain.NormalizeEmail("   "))
}

func TestAccount_CanDebit(t *testing.T) {
	acc := domain.Account{Balance: 4}
	assert.True(t, acc.CanDebit(4))
	assert.True(t, acc.CanDebit(0))
	assert.False(t, acc.CanDebit(5))
	assert.False(t, acc.CanDebit(-1))
}

func TestTransactionKind_AllowsAmount(t *testing.T) {
	tests := []struct {
		name   string
		kind   domain.TransactionKind
		amount int64
		want   bool
	}{
		{"grant positive", domain.KindGrant, 5, true},
		{"grant negative", domain.KindGrant, -5, false},
		{"debit negative", domain.KindDebit, -1, true},
		{"debit positive", domain.KindDebit, 1, false},
		{"adjustment negative", domain.KindManualAdjustment, -3, true},
		{"adjustment positive", domain.KindManualAdjustment, 3, true},
		{"zero never allowed", domain.KindManualAdjustment, 0, false},
		{"unknown kind", domain.TransactionKind("refund"), 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.AllowsAmount(tt.amount))
		})
	}
}

func TestTransactionKind_IsValid(t *testing.T) {
	assert.True(t, domain.KindGrant.IsValid())
	assert.True(t, domain.KindDebit.IsValid())
	assert.True(t, domain.KindManualAdjustment.IsValid())
	assert.False(t, domain.TransactionKind("").IsValid())
}
