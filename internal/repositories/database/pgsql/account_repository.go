package pgsql

import (
	"context"

	"github.com/SscSPs/smartlens_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/smartlens_backend/internal/core/ports/repositories"
	"github.com/SscSPs/smartlens_backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `account_id, email, balance, is_pro, version, created_at, last_updated_at`

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1;`
	return scanAccount(r.Pool.QueryRow(ctx, query, accountID), "find account")
}

// FindAccountByEmail retrieves an account by its normalized email.
func (r *PgxAccountRepository) FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1;`
	return scanAccount(r.Pool.QueryRow(ctx, query, email), "find account by email")
}

func scanAccount(row pgx.Row, op string) (*domain.Account, error) {
	var modelAcc models.Account
	err := row.Scan(
		&modelAcc.AccountID,
		&modelAcc.Email,
		&modelAcc.Balance,
		&modelAcc.IsPro,
		&modelAcc.Version,
		&modelAcc.CreatedAt,
		&modelAcc.LastUpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err, op)
	}
	acc := modelAcc.ToDomain()
	return &acc, nil
}
