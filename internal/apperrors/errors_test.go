package apperrors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/SscSPs/smartlens_backend/internal/apperrors"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"insufficient credits", fmt.Errorf("debit: %w", apperrors.ErrInsufficientCredits), http.StatusPaymentRequired},
		{"account not found", apperrors.ErrAccountNotFound, http.StatusNotFound},
		{"validation", apperrors.ErrValidation, http.StatusBadRequest},
		{"lock timeout", apperrors.ErrLockTimeout, http.StatusConflict},
		{"storage", fmt.Errorf("begin: %w", apperrors.ErrStorageUnavailable), http.StatusServiceUnavailable},
		{"upstream", apperrors.ErrUpstream, http.StatusBadGateway},
		{"app error code wins", apperrors.NewAppError(http.StatusTeapot, "teapot", apperrors.ErrValidation), http.StatusTeapot},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperrors.HTTPStatus(tt.err))
		})
	}
}

func TestKind(t *testing.T) {
	assert.Equal(t, "account_not_found", apperrors.Kind(apperrors.ErrAccountNotFound))
	assert.Equal(t, "not_found", apperrors.Kind(apperrors.ErrNotFound))
	assert.Equal(t, "lock_timeout", apperrors.Kind(apperrors.ErrLockTimeout))
	assert.Equal(t, "concurrency_conflict", apperrors.Kind(apperrors.ErrConcurrencyConflict))
	assert.Equal(t, "insufficient_credits", apperrors.Kind(apperrors.ErrInsufficientCredits))
	assert.Equal(t, "internal", apperrors.Kind(errors.New("boom")))
}

func TestAppError_Unwrap(t *testing.T) {
	err := apperrors.NewAppError(http.StatusInternalServerError, "failed to begin transaction", apperrors.ErrStorageUnavailable)
	assert.ErrorIs(t, err, apperrors.ErrStorageUnavailable)
	assert.Equal(t, "failed to begin transaction: storage unavailable", err.Error())
	assert.True(t, errors.Is(apperrors.ErrLockTimeout, apperrors.ErrConcurrencyConflict))
}
