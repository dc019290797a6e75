package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/smartlens_backend/internal/apperrors"
	"github.com/SscSPs/smartlens_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/smartlens_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/smartlens_backend/internal/core/ports/services"
	"github.com/SscSPs/smartlens_backend/internal/dto"
	"github.com/SscSPs/smartlens_backend/internal/platform/metrics"
	"github.com/SscSPs/smartlens_backend/internal/utils/pagination"
)

const (
	DefaultLockTimeout   = 5 * time.Second
	DefaultWriteTimeout  = 10 * time.Second
	defaultPageSize      = 100
	maxPageSize          = 500
	maxDescriptionLength = 255
)

// ledgerService is the only component that changes balances.
type ledgerService struct {
	BaseService
	accountRepo  portsrepo.AccountReader
	txnRepo      portsrepo.TransactionReader
	txManager    portsrepo.TransactionManager
	locks        *accountLocks
	lockTimeout  time.Duration
	writeTimeout time.Duration
}

// LedgerOption is a functional option for configuring the ledger service
type LedgerOption func(*ledgerService)

// WithLockTimeout bounds how long a caller waits for another write on the same account.
func WithLockTimeout(d time.Duration) LedgerOption {
	return func(s *ledgerService) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// WithWriteTimeout bounds the storage transaction once the account lock is held.
func WithWriteTimeout(d time.Duration) LedgerOption {
	return func(s *ledgerService) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// WithLedgerMetrics adds metrics recording
func WithLedgerMetrics(m *metrics.Metrics) LedgerOption {
	return func(s *ledgerService) {
		s.Metrics = m
	}
}

// WithLedgerClock overrides the time source used for timestamps.
func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(s *ledgerService) {
		s.Now = now
	}
}

// NewLedgerService creates a new ledger service with the provided options
func NewLedgerService(repos portsrepo.RepositoryProvider, options ...LedgerOption) portssvc.LedgerSvcFacade {
	svc := &ledgerService{
		accountRepo:  repos.AccountRepo,
		txnRepo:      repos.TransactionRepo,
		txManager:    repos.TxManager,
		locks:        newAccountLocks(),
		lockTimeout:  DefaultLockTimeout,
		writeTimeout: DefaultWriteTimeout,
	}

	// Apply all options
	for _, option := range options {
		option(svc)
	}

	return svc
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

func validateDelta(accountID string, delta domain.Delta) error {
	switch {
	case accountID == "":
		return fmt.Errorf("%w: account id is required", apperrors.ErrValidation)
	case delta.Amount == 0:
		return fmt.Errorf("%w: amount must be non-zero", apperrors.ErrValidation)
	case !delta.Kind.IsValid():
		return fmt.Errorf("%w: unknown transaction kind %q", apperrors.ErrValidation, delta.Kind)
	case !delta.Kind.AllowsAmount(delta.Amount):
		return fmt.Errorf("%w: amount %d has the wrong sign for a %s", apperrors.ErrValidation, delta.Amount, delta.Kind)
	case len(delta.Description) > maxDescriptionLength:
		return fmt.Errorf("%w: description exceeds %d characters", apperrors.ErrValidation, maxDescriptionLength)
	}
	return nil
}

// ApplyDelta validates and atomically applies one balance change together with its
// transaction record. Writes to one account are serialized; the storage transaction
// runs detached from caller cancellation so it always commits or rolls back cleanly.
func (s *ledgerService) ApplyDelta(ctx context.Context, accountID string, delta domain.Delta) (acc *domain.Account, err error) {
	defer func() {
		s.Metrics.RecordLedgerOperation(string(delta.Kind), delta.Amount, err)
	}()

	if err := validateDelta(accountID, delta); err != nil {
		s.LogDebug(ctx, "Rejected ledger delta", slog.String("account_id", accountID), slog.String("error", err.Error()))
		return nil, err
	}

	waitStart := time.Now()
	release, err := s.locks.acquire(ctx, accountID, s.lockTimeout)
	s.Metrics.ObserveLockWait(time.Since(waitStart))
	if err != nil {
		s.LogError(ctx, err, "Failed to acquire account lock", slog.String("account_id", accountID))
		return nil, err
	}
	defer release()

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()

	now := s.now()
	err = s.txManager.WithinTx(writeCtx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		current, err := tx.FindAccountByIDForUpdate(ctx, accountID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.ErrAccountNotFound
			}
			return err
		}
		if delta.Amount < 0 && !current.CanDebit(-delta.Amount) {
			return fmt.Errorf("%w: balance %d, requested %d", apperrors.ErrInsufficientCredits, current.Balance, -delta.Amount)
		}

		updated, err := tx.ApplyBalanceDelta(ctx, accountID, delta.Amount, now)
		if err != nil {
			return err
		}

		txn := domain.Transaction{
			AccountID:   accountID,
			Amount:      delta.Amount,
			Kind:        delta.Kind,
			Description: delta.Description,
			CreatedAt:   now,
		}
		if delta.Reference != "" {
			ref := delta.Reference
			txn.Reference = &ref
		}
		if _, err := tx.InsertTransaction(ctx, txn); err != nil {
			return err
		}

		acc = updated
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrInsufficientCredits) || errors.Is(err, apperrors.ErrNotFound) {
			s.LogInfo(ctx, "Ledger delta refused",
				slog.String("account_id", accountID),
				slog.Int64("amount", delta.Amount),
				slog.String("reason", err.Error()))
		} else {
			s.LogError(ctx, err, "Failed to apply ledger delta",
				slog.String("account_id", accountID),
				slog.Int64("amount", delta.Amount))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Ledger delta applied",
		slog.String("account_id", accountID),
		slog.String("kind", string(delta.Kind)),
		slog.Int64("amount", delta.Amount),
		slog.Int64("balance", acc.Balance))
	return acc, nil
}

func (s *ledgerService) Debit(ctx context.Context, accountID string, amount int64, description string, reference string) (*domain.Account, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: debit amount must be positive", apperrors.ErrValidation)
	}
	return s.ApplyDelta(ctx, accountID, domain.Delta{
		Amount:      -amount,
		Kind:        domain.KindDebit,
		Description: description,
		Reference:   reference,
	})
}

func (s *ledgerService) Credit(ctx context.Context, accountID string, amount int64, description string) (*domain.Account, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: credit amount must be positive", apperrors.ErrValidation)
	}
	return s.ApplyDelta(ctx, accountID, domain.Delta{
		Amount:      amount,
		Kind:        domain.KindGrant,
		Description: description,
	})
}

func (s *ledgerService) Adjust(ctx context.Context, accountID string, amount int64, description string) (*domain.Account, error) {
	if description == "" {
		return nil, fmt.Errorf("%w: adjustments need a description", apperrors.ErrValidation)
	}
	return s.ApplyDelta(ctx, accountID, domain.Delta{
		Amount:      amount,
		Kind:        domain.KindManualAdjustment,
		Description: description,
	})
}

func (s *ledgerService) ListTransactions(ctx context.Context, accountID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	if _, err := s.getAccount(ctx, accountID); err != nil {
		return nil, err
	}

	limit := params.Limit
	switch {
	case limit <= 0:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}

	listParams := domain.TransactionListParams{Limit: limit + 1}
	if params.NextToken != nil && *params.NextToken != "" {
		beforeID, _, err := pagination.DecodeToken(*params.NextToken)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		listParams.BeforeID = beforeID
	}

	txns, err := s.txnRepo.ListTransactionsByAccount(ctx, accountID, listParams)
	if err != nil {
		s.LogError(ctx, err, "Failed to list transactions", slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	resp := &dto.ListTransactionsResponse{}
	if len(txns) > limit {
		txns = txns[:limit]
		last := txns[len(txns)-1]
		token := pagination.EncodeToken(last.TransactionID, last.CreatedAt)
		resp.NextToken = &token
	}
	resp.Transactions = dto.ToListTransactionResponse(txns)
	return resp, nil
}

// Reconcile compares the stored balance against the sum of the transaction log.
func (s *ledgerService) Reconcile(ctx context.Context, accountID string) (*domain.LedgerSummary, error) {
	acc, err := s.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	totals, err := s.txnRepo.SumTransactionsByAccount(ctx, accountID)
	if err != nil {
		s.LogError(ctx, err, "Failed to sum transactions", slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to sum transactions: %w", err)
	}

	summary := &domain.LedgerSummary{
		AccountID:        acc.AccountID,
		Balance:          acc.Balance,
		TransactionTotal: totals.Net,
		Granted:          totals.Grant,
		Spent:            totals.Spent,
		TransactionCount: totals.Count,
		Consistent:       acc.Balance == totals.Net,
	}
	if !summary.Consistent {
		// A concurrent write between the two reads can also cause this.
		s.LogError(ctx, errors.New("balance does not match transaction log"), "Ledger inconsistency detected",
			slog.String("account_id", accountID),
			slog.Int64("balance", acc.Balance),
			slog.Int64("transaction_total", totals.Net))
	}
	return summary, nil
}

func (s *ledgerService) getAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	acc, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		s.LogError(ctx, err, "Failed to get account", slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}
