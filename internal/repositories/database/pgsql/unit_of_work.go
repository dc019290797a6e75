package pgsql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/smartlens_backend/internal/apperrors"
	"github.com/SscSPs/smartlens_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/smartlens_backend/internal/core/ports/repositories"
	"github.com/SscSPs/smartlens_backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UnitOfWork runs ledger writes inside one Postgres transaction.
type UnitOfWork struct {
	BaseRepository
}

func newUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionManager = (*UnitOfWork)(nil)

func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	tx, err := u.Begin(ctx)
	if err != nil {
		return err
	}
	// Will be ignored if transaction is committed successfully
	defer func() {
		if rbErr := u.Rollback(context.WithoutCancel(ctx), tx); rbErr != nil {
			slog.ErrorContext(ctx, "Failed to roll back ledger transaction", slog.String("error", rbErr.Error()))
		}
	}()

	if err := fn(ctx, &ledgerTx{tx: tx}); err != nil {
		return err
	}
	return u.Commit(ctx, tx)
}

func (u *UnitOfWork) Ping(ctx context.Context) error {
	if err := u.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrStorageUnavailable, err)
	}
	return nil
}

type ledgerTx struct {
	tx pgx.Tx
}

// FindAccountByIDForUpdate locks the account row until the transaction ends.
func (l *ledgerTx) FindAccountByIDForUpdate(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1 FOR UPDATE;`
	return scanAccount(l.tx.QueryRow(ctx, query, accountID), "lock account")
}

func (l *ledgerTx) InsertAccount(ctx context.Context, account domain.Account) error {
	m := models.FromDomainAccount(account)
	query := `
		INSERT INTO accounts (account_id, email, balance, is_pro, version, created_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := l.tx.Exec(ctx, query,
		m.AccountID,
		m.Email,
		m.Balance,
		m.IsPro,
		m.Version,
		m.CreatedAt,
		m.LastUpdatedAt,
	)
	if err != nil {
		switch pgCode(err) {
		case pgUniqueViolation:
			return fmt.Errorf("%w: account with email %s already exists", apperrors.ErrDuplicate, m.Email)
		case pgCheckViolation:
			return fmt.Errorf("%w: negative opening balance", apperrors.ErrValidation)
		}
		return mapErr(err, fmt.Sprintf("save account %s", m.AccountID))
	}
	return nil
}

// ApplyBalanceDelta updates the balance only when the result stays non-negative.
func (l *ledgerTx) ApplyBalanceDelta(ctx context.Context, accountID string, delta int64, now time.Time) (*domain.Account, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $2, version = version + 1, last_updated_at = $3
		WHERE account_id = $1 AND balance + $2 >= 0
		RETURNING ` + accountColumns + `;
	`
	acc, err := scanAccount(l.tx.QueryRow(ctx, query, accountID, delta, now), "update balance")
	if err == nil {
		return acc, nil
	}
	if pgCode(err) == pgCheckViolation {
		return nil, apperrors.ErrInsufficientCredits
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	// No row matched: either the account is gone or the guard refused the change.
	if _, findErr := l.FindAccountByIDForUpdate(ctx, accountID); findErr != nil {
		return nil, findErr
	}
	return nil, apperrors.ErrInsufficientCredits
}

func (l *ledgerTx) InsertTransaction(ctx context.Context, txn domain.Transaction) (*domain.Transaction, error) {
	m := models.FromDomainTransaction(txn)
	query := `
		INSERT INTO transactions (account_id, amount, kind, description, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING transaction_id;
	`
	err := l.tx.QueryRow(ctx, query,
		m.AccountID,
		m.Amount,
		m.Kind,
		m.Description,
		m.Reference,
		m.CreatedAt,
	).Scan(&m.TransactionID)
	if err != nil {
		return nil, mapErr(err, "insert transaction")
	}
	out := m.ToDomain()
	return &out, nil
}
