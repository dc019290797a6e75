package repositories

import (
	"context"

	"github.com/SscSPs/smartlens_backend/internal/core/domain"
)

// TransactionReader defines read operations over the append-only transaction log.
type TransactionReader interface {
	// ListTransactionsByAccount returns a page of transactions, newest first.
	ListTransactionsByAccount(ctx context.Context, accountID string, params domain.TransactionListParams) ([]domain.Transaction, error)

	// SumTransactionsByAccount aggregates the account's transaction log.
	SumTransactionsByAccount(ctx context.Context, accountID string) (domain.LedgerTotals, error)
}

// TransactionRepositoryFacade combines all transaction-related repository interfaces
type TransactionRepositoryFacade interface {
	TransactionReader
}
