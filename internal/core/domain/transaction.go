package domain

import "time"

// TransactionKind tags the reason for a balance change.
type TransactionKind string

const (
	KindGrant            TransactionKind = "grant"
	KindDebit            TransactionKind = "debit"
	KindManualAdjustment TransactionKind = "manual-adjustment"
)

// IsValid reports whether k is one of the recognized kinds.
func (k TransactionKind) IsValid() bool {
	switch k {
	case KindGrant, KindDebit, KindManualAdjustment:
		return true
	}
	return false
}

// AllowsAmount reports whether a signed amount is consistent with the kind.
// Grants only add credits, debits only remove them; manual adjustments go either way.
func (k TransactionKind) AllowsAmount(amount int64) bool {
	if amount == 0 {
		return false
	}
	switch k {
	case KindGrant:
		return amount > 0
	case KindDebit:
		return amount < 0
	case KindManualAdjustment:
		return true
	}
	return false
}

// Transaction is an immutable ledger line recording one balance change.
type Transaction struct {
	TransactionID int64           `json:"transactionID"` // Monotonic, never reused
	AccountID     string          `json:"accountID"`
	Amount        int64           `json:"amount"` // Signed delta
	Kind          TransactionKind `json:"kind"`
	Description   string          `json:"description"`
	Reference     *string         `json:"reference,omitempty"` // Optional external reference (e.g. request id)
	CreatedAt     time.Time       `json:"createdAt"`
}
