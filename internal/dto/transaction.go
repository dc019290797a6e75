package dto

import (
	"time"

	"github.com/SscSPs/smartlens_backend/internal/core/domain"
)

// TransactionResponse defines the data returned for a ledger transaction.
type TransactionResponse struct {
	TransactionID int64                  `json:"id"`
	AccountID     string                 `json:"userId"`
	Amount        int64                  `json:"amount"`
	Kind          domain.TransactionKind `json:"type"`
	Description   string                 `json:"description"`
	Reference     *string                `json:"reference,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// ListTransactionsParams defines query parameters for listing transactions.
type ListTransactionsParams struct {
	Limit     int     `form:"limit,default=100" binding:"min=1,max=500"`
	NextToken *string `form:"nextToken"`
}

// ListTransactionsResponse wraps a page of transactions.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// LedgerSummaryResponse reports the reconciliation of balance and transaction log.
type LedgerSummaryResponse struct {
	AccountID        string `json:"userId"`
	Credits          int64  `json:"credits"`
	TransactionTotal int64  `json:"transactionTotal"`
	TotalGranted     int64  `json:"totalGranted"`
	TotalSpent       int64  `json:"totalSpent"`
	TransactionCount int    `json:"transactionCount"`
	Consistent       bool   `json:"consistent"`
}

// ToTransactionResponse converts a domain.Transaction to its DTO.
func ToTransactionResponse(txn domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID: txn.TransactionID,
		AccountID:     txn.AccountID,
		Amount:        txn.Amount,
		Kind:          txn.Kind,
		Description:   txn.Description,
		Reference:     txn.Reference,
		CreatedAt:     txn.CreatedAt,
	}
}

// ToListTransactionResponse converts a slice of domain.Transaction to DTOs.
func ToListTransactionResponse(txns []domain.Transaction) []TransactionResponse {
	res := make([]TransactionResponse, len(txns))
	for i, txn := range txns {
		res[i] = ToTransactionResponse(txn)
	}
	return res
}

// ToLedgerSummaryResponse converts a domain.LedgerSummary to its DTO.
func ToLedgerSummaryResponse(s *domain.LedgerSummary) LedgerSummaryResponse {
	return LedgerSummaryResponse{
		AccountID:        s.AccountID,
		Credits:          s.Balance,
		TransactionTotal: s.TransactionTotal,
		TotalGranted:     s.Granted,
		TotalSpent:       s.Spent,
		TransactionCount: s.TransactionCount,
		Consistent:       s.Consistent,
	}
}
