package storage

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/catat/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidateContext(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, validateContext(context.Background()))
	assert.NoError(t, validateContext(canceled), "a canceled context is still a context")
	//nolint:staticcheck // exercising the nil guard
	assert.ErrorIs(t, validateContext(nil), ErrNilContext)
}

func TestValidateString(t *testing.T) {
	assert.NoError(t, validateString("6281234", "phone"))
	assert.ErrorIs(t, validateString("", "phone"), ErrEmptyString)
	assert.ErrorIs(t, validateString("  \t ", "phone"), ErrEmptyString)
}

func TestValidateTransaction(t *testing.T) {
	valid := func() *model.Transaction {
		return &model.Transaction{
			ID:       "txn-1",
			UserID:   "user-1",
			Type:     model.TypeExpense,
			Amount:   decimal.NewFromInt(50000),
			Category: "makan",
			Source:   model.SourceWhatsApp,
			Date:     time.Now(),
		}
	}

	tests := []struct {
		mutate func(*model.Transaction)
		name   string
	}{
		{name: "missing ID", mutate: func(txn *model.Transaction) { txn.ID = "" }},
		{name: "missing user", mutate: func(txn *model.Transaction) { txn.UserID = "" }},
		{name: "unknown type", mutate: func(txn *model.Transaction) { txn.Type = "TRANSFER" }},
		{name: "zero amount", mutate: func(txn *model.Transaction) { txn.Amount = decimal.Zero }},
		{name: "negative amount", mutate: func(txn *model.Transaction) { txn.Amount = decimal.NewFromInt(-1) }},
		{name: "blank category", mutate: func(txn *model.Transaction) { txn.Category = "  " }},
		{name: "missing source", mutate: func(txn *model.Transaction) { txn.Source = "" }},
		{name: "missing date", mutate: func(txn *model.Transaction) { txn.Date = time.Time{} }},
	}

	assert.NoError(t, validateTransaction(valid()))
	assert.ErrorIs(t, validateTransaction(nil), ErrNilParameter)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := valid()
			tt.mutate(txn)
			assert.ErrorIs(t, validateTransaction(txn), ErrInvalidTransaction)
		})
	}
}

func TestValidateBudget(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	before := start.AddDate(0, 0, -1)

	valid := func() *model.Budget {
		return &model.Budget{
			ID:        "b-1",
			UserID:    "user-1",
			Category:  "makan",
			Period:    model.PeriodMonthly,
			Amount:    decimal.NewFromInt(1000000),
			StartDate: start,
		}
	}

	tests := []struct {
		mutate func(*model.Budget)
		name   string
	}{
		{name: "missing user", mutate: func(b *model.Budget) { b.UserID = "" }},
		{name: "blank category", mutate: func(b *model.Budget) { b.Category = "" }},
		{name: "zero amount", mutate: func(b *model.Budget) { b.Amount = decimal.Zero }},
		{name: "unknown period", mutate: func(b *model.Budget) { b.Period = "HOURLY" }},
		{name: "missing start", mutate: func(b *model.Budget) { b.StartDate = time.Time{} }},
		{name: "end before start", mutate: func(b *model.Budget) { b.EndDate = &before }},
	}

	assert.NoError(t, validateBudget(valid()))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid()
			tt.mutate(b)
			assert.ErrorIs(t, validateBudget(b), ErrInvalidBudget)
		})
	}
}

func TestValidateUser(t *testing.T) {
	assert.NoError(t, validateUser(&model.User{ID: "u", PhoneNumber: "628111"}))
	assert.ErrorIs(t, validateUser(nil), ErrNilParameter)
	assert.ErrorIs(t, validateUser(&model.User{PhoneNumber: "628111"}), ErrInvalidUser)
	assert.ErrorIs(t, validateUser(&model.User{ID: "u", PhoneNumber: " "}), ErrInvalidUser)
}
