// Package model defines the core domain models used throughout the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

// Transaction type constants.
const (
	TypeIncome  TransactionType = "INCOME"
	TypeExpense TransactionType = "EXPENSE"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Transaction sources.
const (
	SourceWhatsApp = "whatsapp"
	SourceConsole  = "console"
	SourceOFX      = "ofx"
)

// Transaction represents a single recorded income or expense.
type Transaction struct {
	Date        time.Time
	CreatedAt   time.Time
	ID          string
	UserID      string
	Type        TransactionType
	Category    string
	Source      string // Channel the transaction arrived through
	Description string // Original message text or statement line
	Hash        string // Only set for imported rows, used for duplicate detection
	Amount      decimal.Decimal
}

// SignedAmount returns the amount with expenses negated.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// GenerateHash creates a unique hash for duplicate detection of imported rows.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s:%s:%s",
		t.UserID,
		t.Date.Format("2006-01-02"),
		t.Type,
		t.Amount.StringFixed(2),
		t.Description)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
