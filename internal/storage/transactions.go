package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/catat/internal/model"
	"github.com/shopspring/decimal"
)

// Create inserts a single transaction recorded from a conversation.
func (s *SQLiteStorage) Create(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}
	return s.insertTransaction(ctx, s.db, "INSERT", txn)
}

func (s *SQLiteStorage) insertTransaction(ctx context.Context, q queryable, verb string, txn *model.Transaction) error {
	var hash sql.NullString
	if txn.Hash != "" {
		hash = sql.NullString{String: txn.Hash, Valid: true}
	}

	result, err := q.ExecContext(ctx, verb+` INTO transactions (
			id, user_id, type, amount, category, source, description, date, created_at, hash
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		txn.ID, txn.UserID, string(txn.Type), txn.Amount.String(), txn.Category,
		txn.Source, txn.Description, txn.Date.UTC(), txn.CreatedAt.UTC(), hash,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
	}
	if verb != "INSERT" {
		if affected, _ := result.RowsAffected(); affected == 0 {
			return errSkipped
		}
	}
	return nil
}

// errSkipped marks an INSERT OR IGNORE that hit an existing hash.
var errSkipped = errors.New("transaction skipped")

// SaveImportedTransactions stores statement rows, skipping rows whose hash
// already exists. It returns how many rows were newly inserted.
func (s *SQLiteStorage) SaveImportedTransactions(ctx context.Context, transactions []model.Transaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	for i := range transactions {
		if err := validateTransaction(&transactions[i]); err != nil {
			return 0, fmt.Errorf("transaction %d: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	inserted := 0
	now := time.Now().UTC()
	for i := range transactions {
		txn := transactions[i]
		if txn.Hash == "" {
			txn.Hash = txn.GenerateHash()
		}
		if txn.CreatedAt.IsZero() {
			txn.CreatedAt = now
		}
		insertErr := s.insertTransaction(ctx, tx, "INSERT OR IGNORE", &txn)
		if errors.Is(insertErr, errSkipped) {
			continue
		}
		if insertErr != nil {
			err = insertErr
			return 0, err
		}
		inserted++
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inserted, nil
}

// SumByTypeAndWindow totals a user's transactions of one type dated within [start, end].
func (s *SQLiteStorage) SumByTypeAndWindow(ctx context.Context, userID string, txnType model.TransactionType, start, end time.Time) (decimal.Decimal, error) {
	if err := validateContext(ctx); err != nil {
		return decimal.Zero, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return decimal.Zero, err
	}
	if end.Before(start) {
		return decimal.Zero, ErrInvalidDateRange
	}

	return sumAmount(ctx, s.db, `
		SELECT amount FROM transactions
		WHERE user_id = ? AND type = ? AND date >= ? AND date <= ?
	`, userID, string(txnType), start.UTC(), end.UTC())
}

// SumByCategoryAndWindow totals a user's expenses in one category dated within [start, end].
// Categories compare case-insensitively.
func (s *SQLiteStorage) SumByCategoryAndWindow(ctx context.Context, userID, category string, start, end time.Time) (decimal.Decimal, error) {
	if err := validateContext(ctx); err != nil {
		return decimal.Zero, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return decimal.Zero, err
	}
	if end.Before(start) {
		return decimal.Zero, ErrInvalidDateRange
	}

	return sumAmount(ctx, s.db, `
		SELECT amount FROM transactions
		WHERE user_id = ? AND type = 'EXPENSE' AND category = ? COLLATE NOCASE
			AND date >= ? AND date <= ?
	`, userID, category, start.UTC(), end.UTC())
}

// sumAmount adds up the amount column in decimal. Amounts are stored as
// text, so SQL SUM would round through float64.
func sumAmount(ctx context.Context, q queryable, query string, args ...any) (decimal.Decimal, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	total := decimal.Zero
	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan amount: %w", err)
		}
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("error iterating amounts: %w", err)
	}
	return total, nil
}

// ListRecent returns a user's latest transactions, newest first.
func (s *SQLiteStorage) ListRecent(ctx context.Context, userID string, limit int) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []model.Transaction{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, type, amount, category, source, description, date, created_at, hash
		FROM transactions
		WHERE user_id = ?
		ORDER BY date DESC, created_at DESC, rowid DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	transactions := make([]model.Transaction, 0, limit)
	for rows.Next() {
		var (
			txn         model.Transaction
			txnType     string
			description sql.NullString
			hash        sql.NullString
		)
		if err := rows.Scan(
			&txn.ID, &txn.UserID, &txnType, &txn.Amount, &txn.Category, &txn.Source,
			&description, &txn.Date, &txn.CreatedAt, &hash,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.Type = model.TransactionType(txnType)
		txn.Description = description.String
		txn.Hash = hash.String
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}
