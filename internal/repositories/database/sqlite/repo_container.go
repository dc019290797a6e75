package sqlite

import (
	"database/sql"

	portsrepo "github.com/SscSPs/smartlens_backend/internal/core/ports/repositories"
)

func NewRepositoryProvider(db *sql.DB) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:     newSQLiteAccountRepository(db),
		TransactionRepo: newSQLiteTransactionRepository(db),
		TxManager:       newUnitOfWork(db),
	}
}
