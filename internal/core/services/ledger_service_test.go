package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/smartlens_backend/internal/apperrors"
	"github.com/SscSPs/smartlens_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/smartlens_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/smartlens_backend/internal/core/ports/services"
	"github.com/SscSPs/smartlens_backend/internal/core/services"
	"github.com/SscSPs/smartlens_backend/internal/dto"
	"github.com/SscSPs/smartlens_backend/internal/repositories/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite over the in-memory store ---
type LedgerServiceTestSuite struct {
	suite.Suite
	store    *memory.Store
	repos    portsrepo.RepositoryProvider
	accounts portssvc.AccountSvcFacade
	ledger   portssvc.LedgerSvcFacade
	ctx      context.Context
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = memory.New()
	suite.repos = memory.NewRepositoryProvider(suite.store)
	suite.accounts = services.NewAccountService(suite.repos)
	suite.ledger = services.NewLedgerService(suite.repos)
}

func (suite *LedgerServiceTestSuite) newAccount(email string) *domain.Account {
	acc, err := suite.accounts.GetOrCreateAccount(suite.ctx, email)
	suite.Require().NoError(err)
	return acc
}

// assertConsistent checks every account balance against its transaction log.
func (suite *LedgerServiceTestSuite) assertConsistent() {
	accounts, txns := suite.store.Snapshot()
	sums := make(map[string]int64)
	for _, t := range txns {
		sums[t.AccountID] += t.Amount
	}
	for _, a := range accounts {
		suite.GreaterOrEqual(a.Balance, int64(0), "balance of %s went negative", a.AccountID)
		suite.Equal(sums[a.AccountID], a.Balance, "balance of %s does not match its transactions", a.AccountID)
	}
}

// --- End-to-end ---
func (suite *LedgerServiceTestSuite) TestEndToEndScenario() {
	acc := suite.newAccount("End.To.End@Example.com ")
	suite.Equal("end.to.end@example.com", acc.Email)
	suite.Equal(int64(5), acc.Balance)

	for i := 0; i < 5; i++ {
		updated, err := suite.ledger.Debit(suite.ctx, acc.AccountID, 1, "text extraction", "")
		suite.Require().NoError(err)
		suite.Equal(int64(4-i), updated.Balance)
	}

	_, err := suite.ledger.Debit(suite.ctx, acc.AccountID, 1, "text extraction", "")
	suite.ErrorIs(err, apperrors.ErrInsufficientCredits)

	updated, err := suite.ledger.Credit(suite.ctx, acc.AccountID, 3, "top up")
	suite.Require().NoError(err)
	suite.Equal(int64(3), updated.Balance)

	summary, err := suite.ledger.Reconcile(suite.ctx, acc.AccountID)
	suite.Require().NoError(err)
	suite.Equal(domain.LedgerSummary{
		AccountID:        acc.AccountID,
		Balance:          3,
		TransactionTotal: 3,
		Granted:          8,
		Spent:            5,
		TransactionCount: 7,
		Consistent:       true,
	}, *summary)

	again := suite.newAccount("end.to.end@example.com")
	suite.Equal(acc.AccountID, again.AccountID)
	suite.Equal(int64(3), again.Balance)
	suite.assertConsistent()
}

// --- Concurrency ---
func (suite *LedgerServiceTestSuite) TestConcurrentDebitRace() {
	acc := suite.newAccount("race@example.com")

	const callers = 20
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		succeeded    int
		insufficient int
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := suite.ledger.Debit(suite.ctx, acc.AccountID, 1, "text extraction", "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, apperrors.ErrInsufficientCredits):
				insufficient++
			default:
				suite.Failf("unexpected error", "%v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	suite.Equal(5, succeeded)
	suite.Equal(callers-5, insufficient)

	stored, err := suite.accounts.GetAccountByID(suite.ctx, acc.AccountID)
	suite.Require().NoError(err)
	suite.Equal(int64(0), stored.Balance)
	suite.Equal(int64(5), stored.Version)
	suite.assertConsistent()
}

func (suite *LedgerServiceTestSuite) TestConcurrentGetOrCreate() {
	const callers = 16
	ids := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			acc, err := suite.accounts.GetOrCreateAccount(suite.ctx, "same@example.com")
			suite.NoError(err)
			if acc != nil {
				ids[i] = acc.AccountID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		suite.Equal(ids[0], id)
	}
	accounts, txns := suite.store.Snapshot()
	suite.Len(accounts, 1)
	suite.Len(txns, 1, "exactly one initial grant")
}

func (suite *LedgerServiceTestSuite) TestLockTimeoutAndCrossAccountProgress() {
	held := suite.newAccount("held@example.com")
	other := suite.newAccount("other@example.com")

	hook := newHookTxManager(suite.repos.TxManager)
	hook.block = make(chan struct{})
	hook.armed.Store(true)
	repos := suite.repos
	repos.TxManager = hook
	ledger := services.NewLedgerService(repos, services.WithLockTimeout(50*time.Millisecond))

	firstDone := make(chan error, 1)
	go func() {
		_, err := ledger.Debit(suite.ctx, held.AccountID, 1, "slow", "")
		firstDone <- err
	}()
	<-hook.entered

	// Same account: bounded wait, then a conflict.
	start := time.Now()
	_, err := ledger.Debit(suite.ctx, held.AccountID, 1, "blocked", "")
	suite.ErrorIs(err, apperrors.ErrLockTimeout)
	suite.ErrorIs(err, apperrors.ErrConcurrencyConflict)
	suite.Less(time.Since(start), 2*time.Second)

	// Other account: not blocked by the held lock.
	updated, err := ledger.Debit(suite.ctx, other.AccountID, 1, "independent", "")
	suite.Require().NoError(err)
	suite.Equal(int64(4), updated.Balance)

	close(hook.block)
	suite.NoError(<-firstDone)

	stored, err := suite.accounts.GetAccountByID(suite.ctx, held.AccountID)
	suite.Require().NoError(err)
	suite.Equal(int64(4), stored.Balance)
	suite.assertConsistent()
}

func (suite *LedgerServiceTestSuite) TestCallerCancelledAfterLockStillCommits() {
	acc := suite.newAccount("cancel@example.com")

	ctx, cancel := context.WithCancel(suite.ctx)
	hook := newHookTxManager(suite.repos.TxManager)
	hook.before = cancel
	hook.armed.Store(true)
	repos := suite.repos
	repos.TxManager = hook
	ledger := services.NewLedgerService(repos)

	updated, err := ledger.Debit(ctx, acc.AccountID, 2, "text extraction", "")
	suite.Require().NoError(err)
	suite.Equal(int64(3), updated.Balance)
	suite.Error(ctx.Err())

	summary, err := suite.ledger.Reconcile(suite.ctx, acc.AccountID)
	suite.Require().NoError(err)
	suite.True(summary.Consistent)
	suite.Equal(int64(3), summary.Balance)
}

// --- Atomicity ---
func (suite *LedgerServiceTestSuite) TestFailedTransactionInsertRollsBackBalance() {
	acc := suite.newAccount("atomic@example.com")

	injected := errors.New("disk full")
	repos := suite.repos
	repos.TxManager = failingTxManager{TransactionManager: suite.repos.TxManager, err: injected}
	ledger := services.NewLedgerService(repos)

	_, err := ledger.Debit(suite.ctx, acc.AccountID, 1, "text extraction", "")
	suite.ErrorIs(err, injected)

	stored, err := suite.accounts.GetAccountByID(suite.ctx, acc.AccountID)
	suite.Require().NoError(err)
	suite.Equal(int64(5), stored.Balance)
	suite.Equal(int64(0), stored.Version)

	_, txns := suite.store.Snapshot()
	suite.Len(txns, 1)
	suite.assertConsistent()
}

// --- Validation ---
func (suite *LedgerServiceTestSuite) TestApplyDelta_Validation() {
	acc := suite.newAccount("validation@example.com")

	tests := []struct {
		name  string
		delta domain.Delta
	}{
		{"zero amount", domain.Delta{Amount: 0, Kind: domain.KindManualAdjustment, Description: "x"}},
		{"negative grant", domain.Delta{Amount: -1, Kind: domain.KindGrant}},
		{"positive debit", domain.Delta{Amount: 1, Kind: domain.KindDebit}},
		{"unknown kind", domain.Delta{Amount: 1, Kind: domain.TransactionKind("refund")}},
		{"long description", domain.Delta{Amount: 1, Kind: domain.KindGrant, Description: strings.Repeat("a", 256)}},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := suite.ledger.ApplyDelta(suite.ctx, acc.AccountID, tt.delta)
			suite.ErrorIs(err, apperrors.ErrValidation)
		})
	}

	_, err := suite.ledger.ApplyDelta(suite.ctx, "", domain.Delta{Amount: 1, Kind: domain.KindGrant})
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.ledger.Debit(suite.ctx, acc.AccountID, 0, "", "")
	suite.ErrorIs(err, apperrors.ErrValidation)
	_, err = suite.ledger.Credit(suite.ctx, acc.AccountID, -3, "")
	suite.ErrorIs(err, apperrors.ErrValidation)
	_, err = suite.ledger.Adjust(suite.ctx, acc.AccountID, 2, "")
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, txns := suite.store.Snapshot()
	suite.Len(txns, 1, "rejected deltas leave no transactions")
}

func (suite *LedgerServiceTestSuite) TestUnknownAccount() {
	missing := uuid.NewString()

	_, err := suite.ledger.Debit(suite.ctx, missing, 1, "", "")
	suite.ErrorIs(err, apperrors.ErrAccountNotFound)
	_, err = suite.ledger.Credit(suite.ctx, missing, 1, "")
	suite.ErrorIs(err, apperrors.ErrAccountNotFound)
	_, err = suite.ledger.Reconcile(suite.ctx, missing)
	suite.ErrorIs(err, apperrors.ErrAccountNotFound)
	_, err = suite.ledger.ListTransactions(suite.ctx, missing, dto.ListTransactionsParams{})
	suite.ErrorIs(err, apperrors.ErrAccountNotFound)
}

func (suite *LedgerServiceTestSuite) TestAdjust() {
	acc := suite.newAccount("adjust@example.com")

	updated, err := suite.ledger.Adjust(suite.ctx, acc.AccountID, -5, "chargeback")
	suite.Require().NoError(err)
	suite.Equal(int64(0), updated.Balance)

	_, err = suite.ledger.Adjust(suite.ctx, acc.AccountID, -1, "too far")
	suite.ErrorIs(err, apperrors.ErrInsufficientCredits)

	updated, err = suite.ledger.Adjust(suite.ctx, acc.AccountID, 2, "goodwill")
	suite.Require().NoError(err)
	suite.Equal(int64(2), updated.Balance)

	summary, err := suite.ledger.Reconcile(suite.ctx, acc.AccountID)
	suite.Require().NoError(err)
	suite.True(summary.Consistent)
	suite.Equal(int64(7), summary.Granted)
	suite.Equal(int64(0), summary.Spent, "adjustments are not spending")
}

// --- Pagination ---
func (suite *LedgerServiceTestSuite) TestListTransactions_Pages() {
	acc := suite.newAccount("pages@example.com")
	for i := 0; i < 5; i++ {
		_, err := suite.ledger.Debit(suite.ctx, acc.AccountID, 1, "text extraction", uuid.NewString())
		suite.Require().NoError(err)
	}

	first, err := suite.ledger.ListTransactions(suite.ctx, acc.AccountID, dto.ListTransactionsParams{Limit: 4})
	suite.Require().NoError(err)
	suite.Len(first.Transactions, 4)
	suite.Require().NotNil(first.NextToken)
	suite.Equal(domain.KindDebit, first.Transactions[0].Kind)
	suite.NotNil(first.Transactions[0].Reference)

	second, err := suite.ledger.ListTransactions(suite.ctx, acc.AccountID, dto.ListTransactionsParams{Limit: 4, NextToken: first.NextToken})
	suite.Require().NoError(err)
	suite.Len(second.Transactions, 2)
	suite.Nil(second.NextToken)
	suite.Equal(domain.KindGrant, second.Transactions[1].Kind)
	suite.Less(second.Transactions[0].TransactionID, first.Transactions[3].TransactionID)

	all, err := suite.ledger.ListTransactions(suite.ctx, acc.AccountID, dto.ListTransactionsParams{})
	suite.Require().NoError(err)
	suite.Len(all.Transactions, 6)
	suite.Nil(all.NextToken)

	bad := "not-a-token"
	_, err = suite.ledger.ListTransactions(suite.ctx, acc.AccountID, dto.ListTransactionsParams{NextToken: &bad})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}

// --- Repository errors, with mocks ---
func TestLedgerService_RepositoryErrors(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.NewString()
	acc := &domain.Account{AccountID: accountID, Balance: 3}

	t.Run("account lookup fails", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		accountRepo.On("FindAccountByID", ctx, accountID).Return(nil, assert.AnError).Once()
		ledger := services.NewLedgerService(portsrepo.RepositoryProvider{AccountRepo: accountRepo})

		_, err := ledger.Reconcile(ctx, accountID)
		assert.ErrorIs(t, err, assert.AnError)
		assert.NotErrorIs(t, err, apperrors.ErrNotFound)
		accountRepo.AssertExpectations(t)
	})

	t.Run("sum fails", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		txnRepo := new(MockTransactionRepository)
		accountRepo.On("FindAccountByID", ctx, accountID).Return(acc, nil).Once()
		txnRepo.On("SumTransactionsByAccount", ctx, accountID).Return(domain.LedgerTotals{}, assert.AnError).Once()
		ledger := services.NewLedgerService(portsrepo.RepositoryProvider{AccountRepo: accountRepo, TransactionRepo: txnRepo})

		_, err := ledger.Reconcile(ctx, accountID)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "failed to sum transactions")
		txnRepo.AssertExpectations(t)
	})

	t.Run("inconsistent ledger is reported, not hidden", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		txnRepo := new(MockTransactionRepository)
		accountRepo.On("FindAccountByID", ctx, accountID).Return(acc, nil).Once()
		txnRepo.On("SumTransactionsByAccount", ctx, accountID).Return(domain.LedgerTotals{Net: 5, Grant: 5, Count: 1}, nil).Once()
		ledger := services.NewLedgerService(portsrepo.RepositoryProvider{AccountRepo: accountRepo, TransactionRepo: txnRepo})

		summary, err := ledger.Reconcile(ctx, accountID)
		assert.NoError(t, err)
		assert.False(t, summary.Consistent)
		assert.Equal(t, int64(3), summary.Balance)
		assert.Equal(t, int64(5), summary.TransactionTotal)
	})

	t.Run("list fails", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		txnRepo := new(MockTransactionRepository)
		accountRepo.On("FindAccountByID", ctx, accountID).Return(acc, nil).Once()
		txnRepo.On("ListTransactionsByAccount", ctx, accountID, domain.TransactionListParams{Limit: 101}).Return(nil, assert.AnError).Once()
		ledger := services.NewLedgerService(portsrepo.RepositoryProvider{AccountRepo: accountRepo, TransactionRepo: txnRepo})

		_, err := ledger.ListTransactions(ctx, accountID, dto.ListTransactionsParams{})
		assert.ErrorIs(t, err, assert.AnError)
		txnRepo.AssertExpectations(t)
	})

	t.Run("storage unavailable surfaces unchanged", func(t *testing.T) {
		txManager := new(MockTxManager)
		txManager.On("WithinTx", mock.Anything, mock.Anything).Return(apperrors.ErrStorageUnavailable).Once()
		ledger := services.NewLedgerService(portsrepo.RepositoryProvider{TxManager: txManager})

		_, err := ledger.Debit(ctx, accountID, 1, "text extraction", "")
		assert.ErrorIs(t, err, apperrors.ErrStorageUnavailable)
		txManager.AssertExpectations(t)
	})
}
