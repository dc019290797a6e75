package dto

import (
	"time"

	"github.com/SscSPs/smartlens_backend/internal/core/domain"
)

// GetOrCreateAccountRequest is the login payload: the account is created on first sight.
type GetOrCreateAccountRequest struct {
	Email string `json:"email" binding:"required,email,max=320"`
}

// AccountResponse defines the data returned for an account.
// Field names follow the existing web client.
type AccountResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Credits   int64     `json:"credits"`
	IsPro     bool      `json:"isPro"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse returns the account together with a bearer token for later calls.
type LoginResponse struct {
	User        AccountResponse `json:"user"`
	AccessToken string          `json:"accessToken"`
	TokenType   string          `json:"tokenType"`
	ExpiresIn   int64           `json:"expiresIn"` // seconds
}

// DebitRequest removes credits from the caller's own account.
type DebitRequest struct {
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Description string `json:"description" binding:"max=255"`
}

// CreditRequest grants credits (admin only).
type CreditRequest struct {
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Description string `json:"description" binding:"max=255"`
}

// AdjustmentRequest records a signed manual correction (admin only).
type AdjustmentRequest struct {
	Amount      int64  `json:"amount" binding:"required,ne=0"`
	Description string `json:"description" binding:"required,max=255"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		ID:        acc.AccountID,
		Email:     acc.Email,
		Credits:   acc.Balance,
		IsPro:     acc.IsPro,
		CreatedAt: acc.CreatedAt,
	}
}
