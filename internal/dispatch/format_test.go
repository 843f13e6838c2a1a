package dispatch

import (
	"testing"
	"time"

	"github.com/Veraticus/catat/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatter_Currency(t *testing.T) {
	f := NewFormatter(nil)

	tests := []struct {
		amount decimal.Decimal
		want   string
	}{
		{amount: decimal.Zero, want: "Rp0"},
		{amount: decimal.NewFromInt(500), want: "Rp500"},
		{amount: decimal.NewFromInt(50000), want: "Rp50.000"},
		{amount: decimal.NewFromInt(1000000), want: "Rp1.000.000"},
		{amount: decimal.NewFromInt(-150000), want: "-Rp150.000"},
		{amount: decimal.RequireFromString("1500.5"), want: "Rp1.500,50"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Currency(tt.amount))
		})
	}
}

func TestFormatter_Signed(t *testing.T) {
	f := NewFormatter(time.UTC)
	amount := decimal.NewFromInt(25000)

	assert.Equal(t, "-Rp25.000", f.Signed(&model.Transaction{Type: model.TypeExpense, Amount: amount}))
	assert.Equal(t, "+Rp25.000", f.Signed(&model.Transaction{Type: model.TypeIncome, Amount: amount}))
}

func TestFormatter_Date(t *testing.T) {
	f := NewFormatter(time.FixedZone("WIB", 7*60*60))
	assert.Equal(t, "01/01/2025", f.Date(time.Date(2024, 12, 31, 18, 0, 0, 0, time.UTC)))
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name  string
		part  int64
		whole int64
		want  string
	}{
		{name: "eighty", part: 800000, whole: 1000000, want: "80.0"},
		{name: "third", part: 1, whole: 3, want: "33.3"},
		{name: "two thirds rounds", part: 2, whole: 3, want: "66.7"},
		{name: "over budget", part: 3, whole: 2, want: "150.0"},
		{name: "zero budget", part: 100, whole: 0, want: "0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percentage(decimal.NewFromInt(tt.part), decimal.NewFromInt(tt.whole)))
		})
	}
}
