package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/SscSPs/smartlens_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/smartlens_backend/internal/core/ports/repositories"
)

type SQLiteTransactionRepository struct {
	BaseRepository
}

func newSQLiteTransactionRepository(db *sql.DB) *SQLiteTransactionRepository {
	return &SQLiteTransactionRepository{BaseRepository: BaseRepository{DB: db}}
}

var _ portsrepo.TransactionRepositoryFacade = (*SQLiteTransactionRepository)(nil)

// ListTransactionsByAccount returns transactions newest first, starting below params.BeforeID when set.
func (r *SQLiteTransactionRepository) ListTransactionsByAccount(ctx context.Context, accountID string, params domain.TransactionListParams) ([]domain.Transaction, error) {
	query := `
		SELECT transaction_id, account_id, amount, kind, description, reference, created_at
		FROM transactions
		WHERE account_id = ? AND (? = 0 OR transaction_id < ?)
		ORDER BY transaction_id DESC
		LIMIT ?;
	`
	limit := params.Limit
	if limit <= 0 {
		limit = -1 // no limit
	}
	rows, err := r.DB.QueryContext(ctx, query, accountID, params.BeforeID, params.BeforeID, limit)
	if err != nil {
		return nil, mapErr(err, "list transactions")
	}
	defer rows.Close()

	txns := make([]domain.Transaction, 0)
	for rows.Next() {
		var (
			t         domain.Transaction
			kind      string
			reference sql.NullString
			createdAt string
		)
		if err := rows.Scan(&t.TransactionID, &t.AccountID, &t.Amount, &kind, &t.Description, &reference, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		t.Kind = domain.TransactionKind(kind)
		if reference.Valid {
			ref := reference.String
			t.Reference = &ref
		}
		if t.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err, "iterate transactions")
	}
	return txns, nil
}

// SumTransactionsByAccount aggregates the account's transaction log.
func (r *SQLiteTransactionRepository) SumTransactionsByAccount(ctx context.Context, accountID string) (domain.LedgerTotals, error) {
	query := `
		SELECT
			COALESCE(SUM(amount), 0),
			COALESCE(SUM(CASE WHEN amount > 0 THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = 'debit' THEN -amount ELSE 0 END), 0),
			COUNT(*)
		FROM transactions
		WHERE account_id = ?;
	`
	var totals domain.LedgerTotals
	err := r.DB.QueryRowContext(ctx, query, accountID).Scan(&totals.Net, &totals.Grant, &totals.Spent, &totals.Count)
	if err != nil {
		return domain.LedgerTotals{}, mapErr(err, "sum transactions")
	}
	return totals, nil
}
