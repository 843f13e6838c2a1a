package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Veraticus/catat/internal/common"
	"github.com/Veraticus/catat/internal/model"
)

// CreateBudget stores a new budget for a user.
func (s *SQLiteStorage) CreateBudget(ctx context.Context, budget *model.Budget) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBudget(budget); err != nil {
		return err
	}

	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE id = ?`, budget.UserID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("user %s: %w", budget.UserID, common.ErrNotFound)
	}

	var endDate sql.NullTime
	if budget.EndDate != nil {
		endDate = sql.NullTime{Time: budget.EndDate.UTC(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (id, user_id, category, amount, period, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, budget.ID, budget.UserID, budget.Category, budget.Amount.String(), string(budget.Period),
		budget.StartDate.UTC(), endDate, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to create budget: %w", err)
	}
	return nil
}

// ListBudgets returns every budget a user has defined.
func (s *SQLiteStorage) ListBudgets(ctx context.Context, userID string) ([]model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	return queryBudgets(ctx, s.db, `
		SELECT id, user_id, category, amount, period, start_date, end_date
		FROM budgets
		WHERE user_id = ?
		ORDER BY start_date, category
	`, userID)
}

// ListActive returns the budgets whose window contains asOf.
func (s *SQLiteStorage) ListActive(ctx context.Context, userID string, asOf time.Time) ([]model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	ts := asOf.UTC()
	return queryBudgets(ctx, s.db, `
		SELECT id, user_id, category, amount, period, start_date, end_date
		FROM budgets
		WHERE user_id = ? AND start_date <= ? AND (end_date IS NULL OR end_date >= ?)
		ORDER BY category, start_date
	`, userID, ts, ts)
}

func queryBudgets(ctx context.Context, q queryable, query string, args ...any) ([]model.Budget, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var budgets []model.Budget
	for rows.Next() {
		var (
			budget  model.Budget
			period  string
			endDate sql.NullTime
		)
		if err := rows.Scan(
			&budget.ID, &budget.UserID, &budget.Category, &budget.Amount, &period,
			&budget.StartDate, &endDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budget.Period = model.BudgetPeriod(period)
		if endDate.Valid {
			end := endDate.Time
			budget.EndDate = &end
		}
		budgets = append(budgets, budget)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budgets: %w", err)
	}
	return budgets, nil
}
