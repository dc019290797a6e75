package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeToken(t *testing.T) {
	createdAt := time.Date(2025, 5, 15, 14, 30, 45, 123456789, time.UTC)

	token := EncodeToken(42, createdAt)
	assert.NotEmpty(t, token, "Token should not be empty")

	id, decodedCreatedAt, err := DecodeToken(token)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.True(t, createdAt.Equal(decodedCreatedAt), "Created at time should match after decode")
}

func TestDecodeTokenError(t *testing.T) {
	_, _, err := DecodeToken("this is not base64!")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "base64 decode")

	noSeparator := base64.URLEncoding.EncodeToString([]byte("42"))
	_, _, err = DecodeToken(noSeparator)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "split")

	badID := base64.URLEncoding.EncodeToString([]byte("abc|2025-05-15T14:30:45Z"))
	_, _, err = DecodeToken(badID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "id parse")

	negativeID := base64.URLEncoding.EncodeToString([]byte("-1|2025-05-15T14:30:45Z"))
	_, _, err = DecodeToken(negativeID)
	assert.Error(t, err)

	badDate := base64.URLEncoding.EncodeToString([]byte("7|notadate"))
	_, _, err = DecodeToken(badDate)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "created_at parse")
}
