package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/smartlens_backend/internal/core/domain"
)

// LedgerTx is the set of writes available inside one storage transaction.
// Nothing done through a LedgerTx is visible to other readers until the
// enclosing WithinTx call returns nil.
type LedgerTx interface {
	// FindAccountByIDForUpdate reads the account and locks its row until the transaction ends.
	FindAccountByIDForUpdate(ctx context.Context, accountID string) (*domain.Account, error)

	// InsertAccount persists a new account. Returns apperrors.ErrDuplicate if the email is taken.
	InsertAccount(ctx context.Context, account domain.Account) error

	// ApplyBalanceDelta adds delta to the balance and bumps the version, but only if the
	// result stays non-negative; otherwise it returns apperrors.ErrInsufficientCredits.
	ApplyBalanceDelta(ctx context.Context, accountID string, delta int64, now time.Time) (*domain.Account, error)

	// InsertTransaction appends a transaction and returns it with its assigned id.
	InsertTransaction(ctx context.Context, txn domain.Transaction) (*domain.Transaction, error)
}

// TransactionManager defines methods for transaction management
type TransactionManager interface {
	// WithinTx runs fn inside a storage transaction. The transaction commits if fn
	// returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}
