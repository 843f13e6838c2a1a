// Package testutil provides test fixtures backed by a real in-memory database.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/catat/internal/model"
	"github.com/Veraticus/catat/internal/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a migrated in-memory database that is closed when the test ends.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// UserOption tweaks a user before it is inserted.
type UserOption func(*model.User)

// Inactive marks the account itself as disabled.
func Inactive() UserOption {
	return func(u *model.User) { u.IsActive = false }
}

// ExpiresAt sets when the user's activation lapses.
func ExpiresAt(at time.Time) UserOption {
	return func(u *model.User) { u.Activation.ExpiresAt = at }
}

// WithoutActivation removes the activation record entirely.
func WithoutActivation() UserOption {
	return func(u *model.User) { u.Activation = nil }
}

// CreateUser inserts an active user with a thirty day activation.
func (db *TestDB) CreateUser(phone string, opts ...UserOption) *model.User {
	db.t.Helper()

	user := &model.User{
		ID:          uuid.NewString(),
		Username:    "user-" + phone,
		PhoneNumber: phone,
		IsActive:    true,
		Activation: &model.Activation{
			Code:      "ACT-" + phone,
			IsActive:  true,
			ExpiresAt: time.Now().Add(30 * 24 * time.Hour),
		},
	}
	for _, opt := range opts {
		opt(user)
	}

	if err := db.Storage.CreateUser(context.Background(), user); err != nil {
		db.t.Fatalf("failed to create user %s: %v", phone, err)
	}
	return user
}

// CreateBudget inserts an open-ended monthly budget that started at start.
func (db *TestDB) CreateBudget(userID, category string, amount int64, start time.Time) *model.Budget {
	db.t.Helper()

	budget := &model.Budget{
		ID:        uuid.NewString(),
		UserID:    userID,
		Category:  category,
		Period:    model.PeriodMonthly,
		Amount:    decimal.NewFromInt(amount),
		StartDate: start,
	}
	if err := db.Storage.CreateBudget(context.Background(), budget); err != nil {
		db.t.Fatalf("failed to create budget %s: %v", category, err)
	}
	return budget
}

// Transactions returns the most recent transactions recorded for userID.
func (db *TestDB) Transactions(userID string) []model.Transaction {
	db.t.Helper()

	txns, err := db.Storage.ListRecent(context.Background(), userID, 100)
	if err != nil {
		db.t.Fatalf("failed to list transactions: %v", err)
	}
	return txns
}
