package repositories

import (
	"context"

	"github.com/SscSPs/smartlens_backend/internal/core/domain"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves an account by its id. Returns apperrors.ErrNotFound if unknown.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountByEmail retrieves an account by its normalized email.
	FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
}
