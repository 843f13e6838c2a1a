package storage

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/catat/internal/common"
	"github.com/Veraticus/catat/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgets(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	createTestUser(t, store, "u1", "6281111111111")

	march := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	marchEnd := time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)

	open := &model.Budget{
		ID: "b1", UserID: "u1", Category: "makan", Amount: decimal.NewFromInt(1000000),
		Period: model.PeriodMonthly, StartDate: march,
	}
	closed := &model.Budget{
		ID: "b2", UserID: "u1", Category: "transport", Amount: decimal.NewFromInt(300000),
		Period: model.PeriodMonthly, StartDate: march, EndDate: &marchEnd,
	}
	require.NoError(t, store.CreateBudget(ctx, open))
	require.NoError(t, store.CreateBudget(ctx, closed))

	all, err := store.ListBudgets(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := store.ListActive(ctx, "u1", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "makan", active[0].Category)
	assert.True(t, active[0].Amount.Equal(decimal.NewFromInt(1000000)))
	assert.Nil(t, active[0].EndDate)
	require.NotNil(t, active[1].EndDate)
	assert.True(t, marchEnd.Equal(*active[1].EndDate))

	april, err := store.ListActive(ctx, "u1", time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, april, 1)
	assert.Equal(t, "b1", april[0].ID)

	before, err := store.ListActive(ctx, "u1", march.Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, before)
}

func TestCreateBudget_Validation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	earlier := start.Add(-time.Hour)

	err := store.CreateBudget(ctx, &model.Budget{ID: "b1", UserID: "ghost", Category: "makan", Amount: decimal.NewFromInt(1), Period: model.PeriodMonthly, StartDate: start})
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = store.CreateBudget(ctx, &model.Budget{ID: "b1", UserID: "u1", Category: "makan", Amount: decimal.Zero, Period: model.PeriodMonthly, StartDate: start})
	assert.ErrorIs(t, err, ErrInvalidBudget)

	err = store.CreateBudget(ctx, &model.Budget{ID: "b1", UserID: "u1", Category: "makan", Amount: decimal.NewFromInt(1), Period: model.PeriodMonthly, StartDate: start, EndDate: &earlier})
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}
