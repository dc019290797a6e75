package models

import "time"

// Transaction is the row stored in the append-only transactions table.
type Transaction struct {
	TransactionID int64     `db:"transaction_id"` // BIGSERIAL / AUTOINCREMENT
	AccountID     string    `db:"account_id"`     // FK -> accounts.account_id
	Amount        int64     `db:"amount"`         // Signed, non-zero
	Kind          string    `db:"kind"`           // grant | debit | manual-adjustment
	Description   string    `db:"description"`
	Reference     *string   `db:"reference"` // Nullable
	CreatedAt     time.Time `db:"created_at"`
}
