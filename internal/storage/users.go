package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/catat/internal/common"
	"github.com/Veraticus/catat/internal/model"
)

const userColumns = `
	u.id, u.username, u.phone_number, u.is_active, u.created_at,
	a.code, a.is_active, a.expires_at`

// FindByChannelAddress returns the user whose phone number equals address,
// together with their activation record if one exists.
func (s *SQLiteStorage) FindByChannelAddress(ctx context.Context, address string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(address, "address"); err != nil {
		return nil, err
	}
	return s.getUserByPhoneTx(ctx, s.db, address)
}

// GetUserByPhone is the administrative alias of FindByChannelAddress.
func (s *SQLiteStorage) GetUserByPhone(ctx context.Context, phone string) (*model.User, error) {
	return s.FindByChannelAddress(ctx, phone)
}

func (s *SQLiteStorage) getUserByPhoneTx(ctx context.Context, q queryable, phone string) (*model.User, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users u
		LEFT JOIN activations a ON a.user_id = u.id
		WHERE u.phone_number = ?
	`, phone)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", phone, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		user           model.User
		code           sql.NullString
		activeFlag     sql.NullBool
		expiresAt      sql.NullTime
		userCreatedAt  time.Time
		userActiveFlag bool
	)

	if err := row.Scan(
		&user.ID, &user.Username, &user.PhoneNumber, &userActiveFlag, &userCreatedAt,
		&code, &activeFlag, &expiresAt,
	); err != nil {
		return nil, err
	}

	user.IsActive = userActiveFlag
	user.CreatedAt = userCreatedAt
	if code.Valid {
		user.Activation = &model.Activation{
			Code:      code.String,
			IsActive:  activeFlag.Valid && activeFlag.Bool,
			ExpiresAt: expiresAt.Time,
		}
	}
	return &user, nil
}

// CreateUser registers a new user. The phone number must be unique.
func (s *SQLiteStorage) CreateUser(ctx context.Context, user *model.User) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUser(user); err != nil {
		return err
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE phone_number = ?`, user.PhoneNumber).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists > 0 {
		err = fmt.Errorf("user with phone %s: %w", user.PhoneNumber, common.ErrDuplicateEntry)
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, username, phone_number, is_active, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, user.ID, user.Username, user.PhoneNumber, user.IsActive, user.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	if user.Activation != nil {
		if err = setActivationTx(ctx, tx, user.ID, *user.Activation); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListUsers returns every registered user ordered by creation time.
func (s *SQLiteStorage) ListUsers(ctx context.Context) ([]model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users u
		LEFT JOIN activations a ON a.user_id = u.id
		ORDER BY u.created_at, u.phone_number
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []model.User
	for rows.Next() {
		user, scanErr := scanUser(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan user: %w", scanErr)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// SetUserActive flips the user-level active flag.
func (s *SQLiteStorage) SetUserActive(ctx context.Context, userID string, active bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `UPDATE users SET is_active = ? WHERE id = ?`, active, userID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user %s: %w", userID, common.ErrNotFound)
	}
	return nil
}

// SetActivation creates or replaces the activation record for a user.
func (s *SQLiteStorage) SetActivation(ctx context.Context, userID string, activation model.Activation) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}

	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE id = ?`, userID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("user %s: %w", userID, common.ErrNotFound)
	}

	return setActivationTx(ctx, s.db, userID, activation)
}

func setActivationTx(ctx context.Context, q queryable, userID string, activation model.Activation) error {
	if err := validateString(activation.Code, "activation code"); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO activations (user_id, code, is_active, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			code = excluded.code,
			is_active = excluded.is_active,
			expires_at = excluded.expires_at
	`, userID, activation.Code, activation.IsActive, activation.ExpiresAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save activation: %w", err)
	}
	return nil
}
