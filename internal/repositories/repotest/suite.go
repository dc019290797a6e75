// Package repotest holds the behaviour every ledger store must share. Each store
// package runs StoreSuite against its own RepositoryProvider.
package repotest

import (
	"context"
	"errors"
	"time"

	"github.com/SscSPs/smartlens_backend/internal/apperrors"
	"github.com/SscSPs/smartlens_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/smartlens_backend/internal/core/ports/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

var errRollback = errors.New("forced rollback")

type StoreSuite struct {
	suite.Suite
	// NewProvider returns a provider over an empty, migrated store.
	NewProvider func() portsrepo.RepositoryProvider

	repos portsrepo.RepositoryProvider
	ctx   context.Context
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.repos = s.NewProvider()
}

func (s *StoreSuite) createAccount(email string, grant int64) domain.Account {
	now := time.Now().UTC().Truncate(time.Microsecond)
	acc := domain.Account{
		AccountID:   uuid.NewString(),
		Email:       email,
		Balance:     grant,
		AuditFields: domain.AuditFields{CreatedAt: now, LastUpdatedAt: now},
	}
	err := s.repos.TxManager.WithinTx(s.ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		if err := tx.InsertAccount(ctx, acc); err != nil {
			return err
		}
		_, err := tx.InsertTransaction(ctx, domain.Transaction{
			AccountID: acc.AccountID, Amount: grant, Kind: domain.KindGrant,
			Description: "initial grant", CreatedAt: now,
		})
		return err
	})
	s.Require().NoError(err)
	return acc
}

func (s *StoreSuite) TestInsertAndFind() {
	acc := s.createAccount("reader@example.com", 5)

	byID, err := s.repos.AccountRepo.FindAccountByID(s.ctx, acc.AccountID)
	s.Require().NoError(err)
	s.Equal(acc.Email, byID.Email)
	s.Equal(int64(5), byID.Balance)
	s.Equal(int64(0), byID.Version)
	s.WithinDuration(acc.CreatedAt, byID.CreatedAt, time.Second)

	byEmail, err := s.repos.AccountRepo.FindAccountByEmail(s.ctx, "reader@example.com")
	s.Require().NoError(err)
	s.Equal(acc.AccountID, byEmail.AccountID)

	_, err = s.repos.AccountRepo.FindAccountByID(s.ctx, uuid.NewString())
	s.ErrorIs(err, apperrors.ErrNotFound)
	_, err = s.repos.AccountRepo.FindAccountByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *StoreSuite) TestInsertAccount_DuplicateEmail() {
	s.createAccount("dup@example.com", 5)

	now := time.Now().UTC()
	err := s.repos.TxManager.WithinTx(s.ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		return tx.InsertAccount(ctx, domain.Account{
			AccountID: uuid.NewString(), Email: "dup@example.com", Balance: 5,
			AuditFields: domain.AuditFields{CreatedAt: now, LastUpdatedAt: now},
		})
	})
	s.ErrorIs(err, apperrors.ErrDuplicate)
}

func (s *StoreSuite) TestApplyBalanceDelta() {
	acc := s.createAccount("delta@example.com", 5)

	var updated *domain.Account
	err := s.repos.TxManager.WithinTx(s.ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		locked, err := tx.FindAccountByIDForUpdate(ctx, acc.AccountID)
		if err != nil {
			return err
		}
		s.Equal(int64(5), locked.Balance)
		updated, err = tx.ApplyBalanceDelta(ctx, acc.AccountID, -2, time.Now().UTC())
		return err
	})
	s.Require().NoError(err)
	s.Equal(int64(3), updated.Balance)
	s.Equal(int64(1), updated.Version)

	stored, err := s.repos.AccountRepo.FindAccountByID(s.ctx, acc.AccountID)
	s.Require().NoError(err)
	s.Equal(int64(3), stored.Balance)
	s.Equal(int64(1), stored.Version)
}

func (s *StoreSuite) TestApplyBalanceDelta_NeverNegative() {
	acc := s.createAccount("broke@example.com", 1)

	err := s.repos.TxManager.WithinTx(s.ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		_, err := tx.ApplyBalanceDelta(ctx, acc.AccountID, -2, time.Now().UTC())
		return err
	})
	s.ErrorIs(err, apperrors.ErrInsufficientCredits)

	stored, err := s.repos.AccountRepo.FindAccountByID(s.ctx, acc.AccountID)
	s.Require().NoError(err)
	s.Equal(int64(1), stored.Balance)
}

func (s *StoreSuite) TestForUpdate_UnknownAccount() {
	err := s.repos.TxManager.WithinTx(s.ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		_, err := tx.FindAccountByIDForUpdate(ctx, uuid.NewString())
		return err
	})
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *StoreSuite) TestRollbackLeavesNoTrace() {
	acc := s.createAccount("rollback@example.com", 5)

	err := s.repos.TxManager.WithinTx(s.ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		if _, err := tx.ApplyBalanceDelta(ctx, acc.AccountID, -1, time.Now().UTC()); err != nil {
			return err
		}
		if _, err := tx.InsertTransaction(ctx, domain.Transaction{
			AccountID: acc.AccountID, Amount: -1, Kind: domain.KindDebit, CreatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		return errRollback
	})
	s.ErrorIs(err, errRollback)

	stored, err := s.repos.AccountRepo.FindAccountByID(s.ctx, acc.AccountID)
	s.Require().NoError(err)
	s.Equal(int64(5), stored.Balance)
	s.Equal(int64(0), stored.Version)

	totals, err := s.repos.TransactionRepo.SumTransactionsByAccount(s.ctx, acc.AccountID)
	s.Require().NoError(err)
	s.Equal(1, totals.Count)
	s.Equal(int64(5), totals.Net)
}

func (s *StoreSuite) TestTransactionsListAndSum() {
	acc := s.createAccount("history@example.com", 5)
	other := s.createAccount("other@example.com", 5)
	ref := "req-1"

	deltas := []domain.Transaction{
		{Amount: -1, Kind: domain.KindDebit, Description: "text extraction", Reference: &ref},
		{Amount: 3, Kind: domain.KindGrant, Description: "top up"},
		{Amount: -2, Kind: domain.KindManualAdjustment, Description: "correction"},
		{Amount: -1, Kind: domain.KindDebit, Description: "text extraction"},
	}
	for _, d := range deltas {
		d.AccountID = acc.AccountID
		d.CreatedAt = time.Now().UTC()
		err := s.repos.TxManager.WithinTx(s.ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
			if _, err := tx.ApplyBalanceDelta(ctx, d.AccountID, d.Amount, d.CreatedAt); err != nil {
				return err
			}
			_, err := tx.InsertTransaction(ctx, d)
			return err
		})
		s.Require().NoError(err)
	}

	totals, err := s.repos.TransactionRepo.SumTransactionsByAccount(s.ctx, acc.AccountID)
	s.Require().NoError(err)
	s.Equal(domain.LedgerTotals{Net: 4, Grant: 8, Spent: 2, Count: 5}, totals)

	stored, err := s.repos.AccountRepo.FindAccountByID(s.ctx, acc.AccountID)
	s.Require().NoError(err)
	s.Equal(totals.Net, stored.Balance)

	page, err := s.repos.TransactionRepo.ListTransactionsByAccount(s.ctx, acc.AccountID, domain.TransactionListParams{Limit: 2})
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.Equal(int64(-1), page[0].Amount)
	s.Nil(page[0].Reference)
	s.Equal(domain.KindManualAdjustment, page[1].Kind)
	s.Greater(page[0].TransactionID, page[1].TransactionID)

	rest, err := s.repos.TransactionRepo.ListTransactionsByAccount(s.ctx, acc.AccountID,
		domain.TransactionListParams{Limit: 10, BeforeID: page[1].TransactionID})
	s.Require().NoError(err)
	s.Require().Len(rest, 3)
	s.Require().NotNil(rest[1].Reference)
	s.Equal("req-1", *rest[1].Reference)
	s.Equal(domain.KindGrant, rest[2].Kind)
	s.Equal("initial grant", rest[2].Description)

	otherTxns, err := s.repos.TransactionRepo.ListTransactionsByAccount(s.ctx, other.AccountID, domain.TransactionListParams{Limit: 10})
	s.Require().NoError(err)
	s.Len(otherTxns, 1)

	none, err := s.repos.TransactionRepo.SumTransactionsByAccount(s.ctx, uuid.NewString())
	s.Require().NoError(err)
	s.Equal(domain.LedgerTotals{}, none)
}

func (s *StoreSuite) TestPing() {
	s.NoError(s.repos.TxManager.Ping(s.ctx))
}
