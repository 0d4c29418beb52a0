package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType carries the sign of a ledger entry. Amount itself is
// always a positive magnitude.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

// ParseTransactionType returns the typed value for a wire string,
// or false if the string is not one of the two allowed types.
func ParseTransactionType(s string) (TransactionType, bool) {
	switch TransactionType(s) {
	case TransactionTypeCredit, TransactionTypeDebit:
		return TransactionType(s), true
	}
	return "", false
}

// Transaction is an immutable ledger entry. Rows are append-only: there is
// no update or delete path anywhere in the code.
type Transaction struct {
	ID          string
	UserID      string
	Amount      decimal.Decimal
	Type        TransactionType
	Description string
	CreatedAt   time.Time
}

// Balance is the derived state of a user's ledger. It is computed fresh
// from the transactions table on every read, never stored.
type Balance struct {
	UserID      string
	Balance     decimal.Decimal
	LastUpdated *time.Time
}
