// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/catat/internal/model"
	"github.com/shopspring/decimal"
)

// AccountStore resolves channel addresses to user accounts.
type AccountStore interface {
	// FindByChannelAddress returns common.ErrNotFound when no user owns address.
	FindByChannelAddress(ctx context.Context, address string) (*model.User, error)
}

// TransactionStore records and aggregates transactions.
type TransactionStore interface {
	Create(ctx context.Context, txn *model.Transaction) error
	SumByTypeAndWindow(ctx context.Context, userID string, txnType model.TransactionType, start, end time.Time) (decimal.Decimal, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]model.Transaction, error)
	SumByCategoryAndWindow(ctx context.Context, userID, category string, start, end time.Time) (decimal.Decimal, error)
}

// BudgetStore lists budgets.
type BudgetStore interface {
	ListActive(ctx context.Context, userID string, asOf time.Time) ([]model.Budget, error)
}

// Replier is the outbound half of a channel transport.
type Replier interface {
	Reply(ctx context.Context, to, text string) error
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	AccountStore
	TransactionStore
	BudgetStore

	// User administration
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByPhone(ctx context.Context, phone string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	SetUserActive(ctx context.Context, userID string, active bool) error
	SetActivation(ctx context.Context, userID string, activation model.Activation) error

	// Budget administration
	CreateBudget(ctx context.Context, budget *model.Budget) error
	ListBudgets(ctx context.Context, userID string) ([]model.Budget, error)

	// Statement import
	SaveImportedTransactions(ctx context.Context, transactions []model.Transaction) (int, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
