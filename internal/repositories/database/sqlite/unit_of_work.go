package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/smartlens_backend/internal/apperrors"
	"github.com/SscSPs/smartlens_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/smartlens_backend/internal/core/ports/repositories"
)

// UnitOfWork runs ledger writes inside one SQLite transaction.
type UnitOfWork struct {
	BaseRepository
}

func newUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{BaseRepository: BaseRepository{DB: db}}
}

var _ portsrepo.TransactionManager = (*UnitOfWork)(nil)

func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) (err error) {
	tx, err := u.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = u.Rollback(tx)
			panic(p)
		}
	}()

	if err := fn(ctx, &ledgerTx{tx: tx}); err != nil {
		if rbErr := u.Rollback(tx); rbErr != nil {
			slog.ErrorContext(ctx, "Failed to roll back ledger transaction", slog.String("error", rbErr.Error()))
		}
		return err
	}
	return u.Commit(tx)
}

func (u *UnitOfWork) Ping(ctx context.Context) error {
	if err := u.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrStorageUnavailable, err)
	}
	return nil
}

type ledgerTx struct {
	tx *sql.Tx
}

func (l *ledgerTx) FindAccountByIDForUpdate(ctx context.Context, accountID string) (*domain.Account, error) {
	// BEGIN IMMEDIATE already holds the database write lock.
	return findAccount(ctx, l.tx, `SELECT `+accountColumns+` FROM accounts WHERE account_id = ?`, accountID)
}

func (l *ledgerTx) InsertAccount(ctx context.Context, account domain.Account) error {
	query := `
		INSERT INTO accounts (account_id, email, balance, is_pro, version, created_at, last_updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?);
	`
	_, err := l.tx.ExecContext(ctx, query,
		account.AccountID,
		account.Email,
		account.Balance,
		account.IsPro,
		account.Version,
		formatTime(account.CreatedAt),
		formatTime(account.LastUpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: account with email %s already exists", apperrors.ErrDuplicate, account.Email)
		}
		if isCheckViolation(err) {
			return fmt.Errorf("%w: negative opening balance", apperrors.ErrValidation)
		}
		return mapErr(err, fmt.Sprintf("save account %s", account.AccountID))
	}
	return nil
}

func (l *ledgerTx) ApplyBalanceDelta(ctx context.Context, accountID string, delta int64, now time.Time) (*domain.Account, error) {
	query := `
		UPDATE accounts
		SET balance = balance + ?, version = version + 1, last_updated_at = ?
		WHERE account_id = ? AND balance + ? >= 0
		RETURNING ` + accountColumns + `;
	`
	acc, err := scanAccount(l.tx.QueryRowContext(ctx, query, delta, formatTime(now), accountID, delta))
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		if isCheckViolation(err) {
			return nil, apperrors.ErrInsufficientCredits
		}
		return nil, mapErr(err, "update balance")
	}

	// No row matched: either the account is gone or the guard refused the change.
	if _, findErr := l.FindAccountByIDForUpdate(ctx, accountID); findErr != nil {
		return nil, findErr
	}
	return nil, apperrors.ErrInsufficientCredits
}

func (l *ledgerTx) InsertTransaction(ctx context.Context, txn domain.Transaction) (*domain.Transaction, error) {
	query := `
		INSERT INTO transactions (account_id, amount, kind, description, reference, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING transaction_id;
	`
	var reference sql.NullString
	if txn.Reference != nil {
		reference = sql.NullString{String: *txn.Reference, Valid: true}
	}
	err := l.tx.QueryRowContext(ctx, query,
		txn.AccountID,
		txn.Amount,
		string(txn.Kind),
		txn.Description,
		reference,
		formatTime(txn.CreatedAt),
	).Scan(&txn.TransactionID)
	if err != nil {
		return nil, mapErr(err, "insert transaction")
	}
	return &txn, nil
}
