package domain

// Delta is a requested balance change.
type Delta struct {
	Amount      int64
	Kind        TransactionKind
	Description string
	Reference   string
}

// LedgerSummary reconciles an account's stored balance against its transaction log.
type LedgerSummary struct {
	AccountID        string `json:"accountID"`
	Balance          int64  `json:"balance"`
	TransactionTotal int64  `json:"transactionTotal"`
	Granted          int64  `json:"granted"`
	Spent            int64  `json:"spent"`
	TransactionCount int    `json:"transactionCount"`
	Consistent       bool   `json:"consistent"`
}

// LedgerTotals are the aggregates a store computes over one account's transactions.
type LedgerTotals struct {
	Net   int64
	Grant int64 // Sum of positive amounts
	Spent int64 // Sum of |amount| over debit transactions
	Count int
}

// TransactionListParams selects a page of transactions, newest first.
type TransactionListParams struct {
	Limit    int
	BeforeID int64 // Exclusive upper bound on TransactionID; 0 means from the newest
}
