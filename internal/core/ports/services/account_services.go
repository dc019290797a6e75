package services

import (
	"context"

	"github.com/SscSPs/smartlens_backend/internal/core/domain"
)

// AccountReaderSvc defines read operations for account data
type AccountReaderSvc interface {
	// GetAccountByID retrieves an account by id. Fails with apperrors.ErrAccountNotFound.
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
}

// AccountWriterSvc defines write operations for account data
type AccountWriterSvc interface {
	// GetOrCreateAccount returns the account for email, creating it with the initial grant
	// the first time the email is seen.
	GetOrCreateAccount(ctx context.Context, email string) (*domain.Account, error)
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
