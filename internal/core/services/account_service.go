package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/smartlens_backend/internal/apperrors"
	"github.com/SscSPs/smartlens_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/smartlens_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/smartlens_backend/internal/core/ports/services"
	"github.com/SscSPs/smartlens_backend/internal/platform/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// DefaultInitialGrant is the number of credits a new account starts with.
const DefaultInitialGrant int64 = 5

const initialGrantDescription = "initial grant"

// accountService implements the AccountSvcFacade interface
type accountService struct {
	BaseService
	accountRepo  portsrepo.AccountRepositoryFacade
	txManager    portsrepo.TransactionManager
	initialGrant int64
	validate     *validator.Validate
	creates      singleflight.Group
}

// AccountOption is a functional option for configuring the account service
type AccountOption func(*accountService)

// WithInitialGrant sets the credits granted to new accounts.
func WithInitialGrant(credits int64) AccountOption {
	return func(s *accountService) {
		if credits >= 0 {
			s.initialGrant = credits
		}
	}
}

// WithAccountMetrics adds metrics recording
func WithAccountMetrics(m *metrics.Metrics) AccountOption {
	return func(s *accountService) {
		s.Metrics = m
	}
}

// NewAccountService creates a new account service with the provided options
func NewAccountService(repos portsrepo.RepositoryProvider, options ...AccountOption) portssvc.AccountSvcFacade {
	svc := &accountService{
		accountRepo:  repos.AccountRepo,
		txManager:    repos.TxManager,
		initialGrant: DefaultInitialGrant,
		validate:     validator.New(),
	}

	// Apply all options
	for _, option := range options {
		option(svc)
	}

	return svc
}

// Ensure accountService implements the AccountSvcFacade interface
var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	if accountID == "" {
		return nil, apperrors.ErrAccountNotFound
	}
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

// GetOrCreateAccount returns the account for email, creating it with the initial
// grant on first sight. Concurrent callers for one email in this process share a
// single lookup; across processes the unique email constraint decides the winner.
func (s *accountService) GetOrCreateAccount(ctx context.Context, email string) (*domain.Account, error) {
	email = domain.NormalizeEmail(email)
	if err := s.validate.Var(email, "required,email,max=320"); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", apperrors.ErrValidation)
	}

	v, err, shared := s.creates.Do(email, func() (any, error) {
		// Detached so one caller's cancellation does not fail the others sharing this call.
		return s.getOrCreate(context.WithoutCancel(ctx), email)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.LogDebug(ctx, "Shared concurrent account lookup", slog.String("email", email))
	}
	acc := *v.(*domain.Account)
	return &acc, nil
}

func (s *accountService) getOrCreate(ctx context.Context, email string) (*domain.Account, error) {
	acc, err := s.accountRepo.FindAccountByEmail(ctx, email)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		s.LogError(ctx, err, "Failed to look up account by email")
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	now := s.now()
	newAcc := domain.Account{
		AccountID:   uuid.NewString(),
		Email:       email,
		Balance:     s.initialGrant,
		AuditFields: domain.AuditFields{CreatedAt: now, LastUpdatedAt: now},
	}

	err = s.txManager.WithinTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		if err := tx.InsertAccount(ctx, newAcc); err != nil {
			return err
		}
		if s.initialGrant == 0 {
			return nil
		}
		_, err := tx.InsertTransaction(ctx, domain.Transaction{
			AccountID:   newAcc.AccountID,
			Amount:      s.initialGrant,
			Kind:        domain.KindGrant,
			Description: initialGrantDescription,
			CreatedAt:   now,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// Lost the race to another process; the winner's row is authoritative.
			s.LogDebug(ctx, "Account created concurrently, re-reading")
			acc, findErr := s.accountRepo.FindAccountByEmail(ctx, email)
			if findErr != nil {
				return nil, fmt.Errorf("failed to re-read account after duplicate: %w", findErr)
			}
			return acc, nil
		}
		s.LogError(ctx, err, "Failed to create account")
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.Metrics.RecordAccountCreated()
	if s.initialGrant > 0 {
		s.Metrics.RecordLedgerOperation(string(domain.KindGrant), s.initialGrant, nil)
	}
	s.LogInfo(ctx, "Account created",
		slog.String("account_id", newAcc.AccountID),
		slog.Int64("initial_grant", s.initialGrant))
	return &newAcc, nil
}
