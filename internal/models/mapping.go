package models

import "github.com/SscSPs/smartlens_backend/internal/core/domain"

// FromDomainAccount converts a domain.Account into its row form.
func FromDomainAccount(d domain.Account) Account {
	return Account{
		AccountID: d.AccountID,
		Email:     d.Email,
		Balance:   d.Balance,
		IsPro:     d.IsPro,
		Version:   d.Version,
		AuditFields: AuditFields{
			CreatedAt:     d.CreatedAt,
			LastUpdatedAt: d.LastUpdatedAt,
		},
	}
}

// ToDomain converts an accounts row into a domain.Account.
func (m Account) ToDomain() domain.Account {
	return domain.Account{
		AccountID: m.AccountID,
		Email:     m.Email,
		Balance:   m.Balance,
		IsPro:     m.IsPro,
		Version:   m.Version,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			LastUpdatedAt: m.LastUpdatedAt,
		},
	}
}

// FromDomainTransaction converts a domain.Transaction into its row form.
func FromDomainTransaction(d domain.Transaction) Transaction {
	return Transaction{
		TransactionID: d.TransactionID,
		AccountID:     d.AccountID,
		Amount:        d.Amount,
		Kind:          string(d.Kind),
		Description:   d.Description,
		Reference:     d.Reference,
		CreatedAt:     d.CreatedAt,
	}
}

// ToDomain converts a transactions row into a domain.Transaction.
func (m Transaction) ToDomain() domain.Transaction {
	return domain.Transaction{
		TransactionID: m.TransactionID,
		AccountID:     m.AccountID,
		Amount:        m.Amount,
		Kind:          domain.TransactionKind(m.Kind),
		Description:   m.Description,
		Reference:     m.Reference,
		CreatedAt:     m.CreatedAt,
	}
}
