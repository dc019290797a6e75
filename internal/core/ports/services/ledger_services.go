package services

import (
	"context"

	"github.com/SscSPs/smartlens_backend/internal/core/domain"
	"github.com/SscSPs/smartlens_backend/internal/dto"
)

// LedgerWriterSvc defines the balance-changing operations. It is the only way balances change.
type LedgerWriterSvc interface {
	// ApplyDelta validates and atomically applies one balance change plus its transaction record.
	ApplyDelta(ctx context.Context, accountID string, delta domain.Delta) (*domain.Account, error)

	// Debit removes amount (> 0) credits. Fails with apperrors.ErrInsufficientCredits.
	Debit(ctx context.Context, accountID string, amount int64, description string, reference string) (*domain.Account, error)

	// Credit adds amount (> 0) credits as a grant.
	Credit(ctx context.Context, accountID string, amount int64, description string) (*domain.Account, error)

	// Adjust records a signed manual-adjustment correction.
	Adjust(ctx context.Context, accountID string, amount int64, description string) (*domain.Account, error)
}

// LedgerReaderSvc defines read operations over the ledger
type LedgerReaderSvc interface {
	// ListTransactions returns a page of the account's transactions, newest first.
	ListTransactions(ctx context.Context, accountID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)

	// Reconcile compares the stored balance against the sum of the account's transactions.
	Reconcile(ctx context.Context, accountID string) (*domain.LedgerSummary, error)
}

// LedgerSvcFacade combines all ledger-related service interfaces
type LedgerSvcFacade interface {
	LedgerWriterSvc
	LedgerReaderSvc
}
