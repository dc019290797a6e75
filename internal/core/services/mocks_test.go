package services_test

import (
	"context"
	"sync/atomic"

	"github.com/SscSPs/smartlens_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/smartlens_backend/internal/core/ports/repositories"
	"github.com/stretchr/testify/mock"
)

// --- Mock AccountRepository ---
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	var acc *domain.Account
	if args.Get(0) != nil {
		acc = args.Get(0).(*domain.Account)
	}
	return acc, args.Error(1)
}

func (m *MockAccountRepository) FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	args := m.Called(ctx, email)
	var acc *domain.Account
	if args.Get(0) != nil {
		acc = args.Get(0).(*domain.Account)
	}
	return acc, args.Error(1)
}

// --- Mock TransactionRepository ---
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) ListTransactionsByAccount(ctx context.Context, accountID string, params domain.TransactionListParams) ([]domain.Transaction, error) {
	args := m.Called(ctx, accountID, params)
	var txns []domain.Transaction
	if args.Get(0) != nil {
		txns = args.Get(0).([]domain.Transaction)
	}
	return txns, args.Error(1)
}

func (m *MockTransactionRepository) SumTransactionsByAccount(ctx context.Context, accountID string) (domain.LedgerTotals, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(domain.LedgerTotals), args.Error(1)
}

// --- Mock TransactionManager ---
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

func (m *MockTxManager) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- Mock VisionClient ---
type MockVisionClient struct {
	mock.Mock
}

func (m *MockVisionClient) DetectRegions(ctx context.Context, img domain.Image) ([]domain.DetectedRegion, error) {
	args := m.Called(ctx, img)
	var regions []domain.DetectedRegion
	if args.Get(0) != nil {
		regions = args.Get(0).([]domain.DetectedRegion)
	}
	return regions, args.Error(1)
}

func (m *MockVisionClient) ExtractText(ctx context.Context, img domain.Image, regions []domain.Region) (string, error) {
	args := m.Called(ctx, img, regions)
	return args.String(0), args.Error(1)
}

// --- Mock LedgerWriterSvc ---
type MockLedgerWriter struct {
	mock.Mock
}

func (m *MockLedgerWriter) ApplyDelta(ctx context.Context, accountID string, delta domain.Delta) (*domain.Account, error) {
	args := m.Called(ctx, accountID, delta)
	var acc *domain.Account
	if args.Get(0) != nil {
		acc = args.Get(0).(*domain.Account)
	}
	return acc, args.Error(1)
}

func (m *MockLedgerWriter) Debit(ctx context.Context, accountID string, amount int64, description string, reference string) (*domain.Account, error) {
	args := m.Called(ctx, accountID, amount, description, reference)
	var acc *domain.Account
	if args.Get(0) != nil {
		acc = args.Get(0).(*domain.Account)
	}
	return acc, args.Error(1)
}

func (m *MockLedgerWriter) Credit(ctx context.Context, accountID string, amount int64, description string) (*domain.Account, error) {
	args := m.Called(ctx, accountID, amount, description)
	var acc *domain.Account
	if args.Get(0) != nil {
		acc = args.Get(0).(*domain.Account)
	}
	return acc, args.Error(1)
}

func (m *MockLedgerWriter) Adjust(ctx context.Context, accountID string, amount int64, description string) (*domain.Account, error) {
	args := m.Called(ctx, accountID, amount, description)
	var acc *domain.Account
	if args.Get(0) != nil {
		acc = args.Get(0).(*domain.Account)
	}
	return acc, args.Error(1)
}

// --- Failure injection over a real store ---

// failingTx delegates to a real LedgerTx but fails transaction inserts.
type failingTx struct {
	portsrepo.LedgerTx
	err error
}

func (f failingTx) InsertTransaction(_ context.Context, _ domain.Transaction) (*domain.Transaction, error) {
	return nil, f.err
}

// failingTxManager hands fn a LedgerTx whose InsertTransaction always fails,
// after the balance update has already been staged.
type failingTxManager struct {
	portsrepo.TransactionManager
	err error
}

func (m failingTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	return m.TransactionManager.WithinTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		return fn(ctx, failingTx{LedgerTx: tx, err: m.err})
	})
}

// hookTxManager runs before ahead of the next storage transaction once armed.
// If block is set, that transaction waits for it to close before starting.
type hookTxManager struct {
	portsrepo.TransactionManager
	armed   atomic.Bool
	entered chan struct{}
	block   chan struct{}
	before  func()
}

func newHookTxManager(inner portsrepo.TransactionManager) *hookTxManager {
	return &hookTxManager{TransactionManager: inner, entered: make(chan struct{})}
}

func (m *hookTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	if m.armed.CompareAndSwap(true, false) {
		if m.before != nil {
			m.before()
		}
		close(m.entered)
		if m.block != nil {
			<-m.block
		}
	}
	return m.TransactionManager.WithinTx(ctx, fn)
}
