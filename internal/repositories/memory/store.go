// Package memory is an in-process ledger store. Transactions are serialized like
// SQLite's single writer and staged until commit, so a failing callback leaves no trace.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/smartlens_backend/internal/apperrors"
	"github.com/SscSPs/smartlens_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/smartlens_backend/internal/core/ports/repositories"
	"golang.org/x/sync/semaphore"
)

type Store struct {
	mu sync.RWMutex

	// Account storage
	accounts map[string]*domain.Account
	byEmail  map[string]string

	// Transaction log, append-only, ordered by id
	transactions []domain.Transaction
	lastTxnID    int64

	// writer admits one storage transaction at a time
	writer *semaphore.Weighted
}

var (
	_ portsrepo.AccountRepositoryFacade     = (*Store)(nil)
	_ portsrepo.TransactionRepositoryFacade = (*Store)(nil)
	_ portsrepo.TransactionManager          = (*Store)(nil)
)

func New() *Store {
	return &Store{
		accounts:     make(map[string]*domain.Account),
		byEmail:      make(map[string]string),
		transactions: make([]domain.Transaction, 0),
		writer:       semaphore.NewWeighted(1),
	}
}

// NewRepositoryProvider exposes the store through the repository ports.
func NewRepositoryProvider(s *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:     s,
		TransactionRepo: s,
		TxManager:       s,
	}
}

// Account Store implementation
func (s *Store) FindAccountByID(_ context.Context, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.accounts[accountID]; ok {
		acc := *a
		return &acc, nil
	}
	return nil, apperrors.ErrNotFound
}

func (s *Store) FindAccountByEmail(_ context.Context, email string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.byEmail[email]; ok {
		acc := *s.accounts[id]
		return &acc, nil
	}
	return nil, apperrors.ErrNotFound
}

// Transaction Store implementation
func (s *Store) ListTransactionsByAccount(_ context.Context, accountID string, params domain.TransactionListParams) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Transaction, 0)
	for i := len(s.transactions) - 1; i >= 0; i-- {
		t := s.transactions[i]
		if t.AccountID != accountID {
			continue
		}
		if params.BeforeID > 0 && t.TransactionID >= params.BeforeID {
			continue
		}
		result = append(result, t)
		if params.Limit > 0 && len(result) == params.Limit {
			break
		}
	}
	return result, nil
}

func (s *Store) SumTransactionsByAccount(_ context.Context, accountID string) (domain.LedgerTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var totals domain.LedgerTotals
	for _, t := range s.transactions {
		if t.AccountID != accountID {
			continue
		}
		totals.Net += t.Amount
		totals.Count++
		if t.Amount > 0 {
			totals.Grant += t.Amount
		}
		if t.Kind == domain.KindDebit {
			totals.Spent -= t.Amount
		}
	}
	return totals, nil
}

// WithinTx runs fn against a staged view of the store and publishes the staged
// writes only if fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	if err := s.writer.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: waiting for writer: %v", apperrors.ErrConcurrencyConflict, err)
	}
	defer s.writer.Release(1)

	tx := &stagedTx{
		store:    s,
		accounts: make(map[string]*domain.Account),
		byEmail:  make(map[string]string),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.commit(tx)
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	return nil
}

func (s *Store) commit(tx *stagedTx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, a := range tx.accounts {
		s.accounts[id] = a
	}
	for email, id := range tx.byEmail {
		s.byEmail[email] = id
	}
	for _, t := range tx.transactions {
		s.lastTxnID++
		t.TransactionID = s.lastTxnID
		s.transactions = append(s.transactions, t)
	}
}

// stagedTx buffers writes until commit. Writers are serialized, so the ids
// handed out here are the ones commit assigns.
type stagedTx struct {
	store        *Store
	accounts     map[string]*domain.Account
	byEmail      map[string]string
	transactions []domain.Transaction
}

func (t *stagedTx) lookup(accountID string) (*domain.Account, bool) {
	if a, ok := t.accounts[accountID]; ok {
		return a, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	a, ok := t.store.accounts[accountID]
	return a, ok
}

func (t *stagedTx) FindAccountByIDForUpdate(_ context.Context, accountID string) (*domain.Account, error) {
	a, ok := t.lookup(accountID)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	acc := *a
	return &acc, nil
}

func (t *stagedTx) InsertAccount(_ context.Context, account domain.Account) error {
	if _, ok := t.byEmail[account.Email]; ok {
		return fmt.Errorf("%w: account with email %s already exists", apperrors.ErrDuplicate, account.Email)
	}
	t.store.mu.RLock()
	_, emailTaken := t.store.byEmail[account.Email]
	_, idTaken := t.store.accounts[account.AccountID]
	t.store.mu.RUnlock()
	if emailTaken {
		return fmt.Errorf("%w: account with email %s already exists", apperrors.ErrDuplicate, account.Email)
	}
	if _, staged := t.accounts[account.AccountID]; idTaken || staged {
		return fmt.Errorf("%w: account with ID %s already exists", apperrors.ErrDuplicate, account.AccountID)
	}
	if account.Balance < 0 {
		return apperrors.ErrInsufficientCredits
	}

	acc := account
	t.accounts[acc.AccountID] = &acc
	t.byEmail[acc.Email] = acc.AccountID
	return nil
}

func (t *stagedTx) ApplyBalanceDelta(_ context.Context, accountID string, delta int64, now time.Time) (*domain.Account, error) {
	a, ok := t.lookup(accountID)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if a.Balance+delta < 0 {
		return nil, apperrors.ErrInsufficientCredits
	}
	updated := *a
	updated.Balance += delta
	updated.Version++
	updated.LastUpdatedAt = now
	t.accounts[accountID] = &updated

	acc := updated
	return &acc, nil
}

func (t *stagedTx) InsertTransaction(_ context.Context, txn domain.Transaction) (*domain.Transaction, error) {
	if _, ok := t.lookup(txn.AccountID); !ok {
		return nil, fmt.Errorf("insert transaction for unknown account %s: %w", txn.AccountID, apperrors.ErrNotFound)
	}
	t.store.mu.RLock()
	txn.TransactionID = t.store.lastTxnID + int64(len(t.transactions)) + 1
	t.store.mu.RUnlock()
	t.transactions = append(t.transactions, txn)

	out := txn
	return &out, nil
}

// Snapshot returns every account and the full transaction log ordered by id.
// Used by consistency checks.
func (s *Store) Snapshot() ([]domain.Account, []domain.Transaction) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		accounts = append(accounts, *a)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].AccountID < accounts[j].AccountID })

	txns := make([]domain.Transaction, len(s.transactions))
	copy(txns, s.transactions)
	return accounts, txns
}
