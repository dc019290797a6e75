package domain

import "strings"

// Account is a user's persistent identity and credit balance record.
type Account struct {
	AccountID string `json:"accountID"` // Primary key (UUID), generated at creation
	Email     string `json:"email"`     // Unique, normalized, immutable
	Balance   int64  `json:"balance"`   // Usable credits, never negative
	IsPro     bool   `json:"isPro"`     // Reserved for future tiering
	Version   int64  `json:"version"`   // Bumped on every balance change
	AuditFields
}

// NormalizeEmail lowercases and trims an email so it can serve as the natural account key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CanDebit reports whether amount credits can be removed without going negative.
func (a Account) CanDebit(amount int64) bool {
	return amount >= 0 && a.Balance >= amount
}
