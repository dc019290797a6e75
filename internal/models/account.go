package models

import "time"

// AuditFields mirrors the timestamp columns shared by ledger tables.
type AuditFields struct {
	CreatedAt     time.Time `db:"created_at"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
}

// Account is the row stored in the accounts table.
type Account struct {
	AccountID string `db:"account_id"`
	Email     string `db:"email"`   // Unique
	Balance   int64  `db:"balance"` // CHECK (balance >= 0)
	IsPro     bool   `db:"is_pro"`
	Version   int64  `db:"version"`
	AuditFields
}
