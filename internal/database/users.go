package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"akkord/internal/models"

	"github.com/shopspring/decimal"
)

const userColumns = `id, email, name, is_admin, balance, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var (
		user       models.User
		balanceStr string
	)
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.IsAdmin, &balanceStr, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	user.Balance, err = decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance %q: %w", balanceStr, err)
	}
	return &user, nil
}

func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (email, name, is_admin, balance, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query, user.Email, user.Name, user.IsAdmin, user.Balance.String(), now, now)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	user, err := scanUser(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	user, err := scanUser(db.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (db *DB) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (db *DB) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var balanceStr string
	err := db.QueryRowContext(ctx, `SELECT balance FROM users WHERE id = ?`, userID).Scan(&balanceStr)
	if err == sql.ErrNoRows {
		return decimal.Zero, ErrUserNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}
	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse balance %q: %w", balanceStr, err)
	}
	return balance, nil
}

// CreditBalance пополняет баланс; сумма проверяется на уровне сервиса и здесь
func (db *DB) CreditBalance(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	balance, err := balanceTx(ctx, tx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	newBalance := balance.Add(amount)
	if err := setBalanceTx(ctx, tx, userID, newBalance); err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, err
	}
	return newBalance, nil
}

// DebitBalance списывает сумму; ok=false при нехватке средств, без ошибки
func (db *DB) DebitBalance(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error) {
	if !amount.IsPositive() {
		return false, ErrInvalidAmount
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	ok, err := debitBalanceTx(ctx, tx, userID, amount)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	return true, tx.Commit()
}

func balanceTx(ctx context.Context, tx *sql.Tx, userID int64) (decimal.Decimal, error) {
	var balanceStr string
	err := tx.QueryRowContext(ctx, `SELECT balance FROM users WHERE id = ?`, userID).Scan(&balanceStr)
	if err == sql.ErrNoRows {
		return decimal.Zero, ErrUserNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance in tx: %w", err)
	}
	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse balance %q: %w", balanceStr, err)
	}
	return balance, nil
}

func setBalanceTx(ctx context.Context, tx *sql.Tx, userID int64, balance decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `UPDATE users SET balance = ?, updated_at = ? WHERE id = ?`,
		balance.String(), time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return nil
}

// debitBalanceTx выполняет проверку достаточности и списание в рамках переданной транзакции
func debitBalanceTx(ctx context.Context, tx *sql.Tx, userID int64, amount decimal.Decimal) (bool, error) {
	balance, err := balanceTx(ctx, tx, userID)
	if err != nil {
		return false, err
	}
	if balance.LessThan(amount) {
		return false, nil
	}
	return true, setBalanceTx(ctx, tx, userID, balance.Sub(amount))
}
