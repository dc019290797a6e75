package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/SscSPs/smartlens_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/smartlens_backend/internal/core/ports/repositories"
)

const accountColumns = `account_id, email, balance, is_pro, version, created_at, last_updated_at`

type SQLiteAccountRepository struct {
	BaseRepository
}

func newSQLiteAccountRepository(db *sql.DB) *SQLiteAccountRepository {
	return &SQLiteAccountRepository{BaseRepository: BaseRepository{DB: db}}
}

var _ portsrepo.AccountRepositoryFacade = (*SQLiteAccountRepository)(nil)

// FindAccountByID retrieves an account by its ID.
func (r *SQLiteAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	return findAccount(ctx, r.DB, `SELECT `+accountColumns+` FROM accounts WHERE account_id = ?`, accountID)
}

// FindAccountByEmail retrieves an account by its normalized email.
func (r *SQLiteAccountRepository) FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return findAccount(ctx, r.DB, `SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
}

func findAccount(ctx context.Context, q querier, query string, arg any) (*domain.Account, error) {
	acc, err := scanAccount(q.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, mapErr(err, "find account")
	}
	return acc, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var (
		acc                domain.Account
		createdAt, updated string
	)
	if err := row.Scan(&acc.AccountID, &acc.Email, &acc.Balance, &acc.IsPro, &acc.Version, &createdAt, &updated); err != nil {
		return nil, err
	}
	var err error
	if acc.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if acc.LastUpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("parse last_updated_at: %w", err)
	}
	return &acc, nil
}
