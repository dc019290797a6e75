package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/smartlens_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/smartlens_backend/internal/core/ports/repositories"
	"github.com/SscSPs/smartlens_backend/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxTransactionRepository struct {
	BaseRepository
}

func newPgxTransactionRepository(pool *pgxpool.Pool) *PgxTransactionRepository {
	return &PgxTransactionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

// ListTransactionsByAccount returns transactions newest first, starting below params.BeforeID when set.
func (r *PgxTransactionRepository) ListTransactionsByAccount(ctx context.Context, accountID string, params domain.TransactionListParams) ([]domain.Transaction, error) {
	query := `
		SELECT transaction_id, account_id, amount, kind, description, reference, created_at
		FROM transactions
		WHERE account_id = $1 AND ($2::BIGINT = 0 OR transaction_id < $2)
		ORDER BY transaction_id DESC
		LIMIT $3;
	`
	var limit *int
	if params.Limit > 0 {
		limit = &params.Limit
	}
	rows, err := r.Pool.Query(ctx, query, accountID, params.BeforeID, limit)
	if err != nil {
		return nil, mapErr(err, "list transactions")
	}
	defer rows.Close()

	txns := make([]domain.Transaction, 0)
	for rows.Next() {
		var m models.Transaction
		if err := rows.Scan(&m.TransactionID, &m.AccountID, &m.Amount, &m.Kind, &m.Description, &m.Reference, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txns = append(txns, m.ToDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err, "iterate transactions")
	}
	return txns, nil
}

// SumTransactionsByAccount aggregates the account's transaction log.
func (r *PgxTransactionRepository) SumTransactionsByAccount(ctx context.Context, accountID string) (domain.LedgerTotals, error) {
	query := `
		SELECT
			COALESCE(SUM(amount), 0)::BIGINT,
			COALESCE(SUM(amount) FILTER (WHERE amount > 0), 0)::BIGINT,
			COALESCE(-SUM(amount) FILTER (WHERE kind = 'debit'), 0)::BIGINT,
			COUNT(*)
		FROM transactions
		WHERE account_id = $1;
	`
	var totals domain.LedgerTotals
	err := r.Pool.QueryRow(ctx, query, accountID).Scan(&totals.Net, &totals.Grant, &totals.Spent, &totals.Count)
	if err != nil {
		return domain.LedgerTotals{}, mapErr(err, "sum transactions")
	}
	return totals, nil
}
