package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano

// EncodeToken creates an opaque cursor from the last transaction of a page.
func EncodeToken(transactionID int64, createdAt time.Time) string {
	tokenStr := fmt.Sprintf("%d|%s", transactionID, createdAt.UTC().Format(timeFormat))
	return base64.URLEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeToken parses a cursor back into the transaction id and creation time it was built from.
func DecodeToken(token string) (int64, time.Time, error) {
	decodedBytes, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	parts := strings.SplitN(string(decodedBytes), "|", 2)
	if len(parts) != 2 {
		return 0, time.Time{}, fmt.Errorf("invalid pagination token format (split)")
	}

	transactionID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || transactionID <= 0 {
		return 0, time.Time{}, fmt.Errorf("invalid pagination token format (id parse)")
	}

	createdAt, err := time.Parse(timeFormat, parts[1])
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("invalid pagination token format (created_at parse): %w", err)
	}

	return transactionID, createdAt, nil
}
