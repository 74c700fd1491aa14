package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"akkord/internal/models"

	"github.com/shopspring/decimal"
)

const orderColumns = `id, reference, item_id, user_id, quantity, total_amount, status, created_at, completed_at`

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	var (
		order       models.Order
		amountStr   string
		completedAt sql.NullTime
	)
	err := row.Scan(
		&order.ID, &order.Reference, &order.ItemID, &order.UserID, &order.Quantity,
		&amountStr, &order.Status, &order.CreatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	order.TotalAmount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse order amount %q: %w", amountStr, err)
	}
	if completedAt.Valid {
		t := completedAt.Time
		order.CompletedAt = &t
	}
	return &order, nil
}

func (db *DB) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`
	order, err := scanOrder(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

func (db *DB) GetOrderByReference(ctx context.Context, reference string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE reference = ?`
	order, err := scanOrder(db.QueryRowContext(ctx, query, reference))
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order by reference: %w", err)
	}
	return order, nil
}

func (db *DB) GetOrdersByUser(ctx context.Context, userID int64) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	return db.queryOrders(ctx, query, userID)
}

// GetActiveOrdersByUser возвращает заказы, не отменённые и не завершённые
func (db *DB) GetActiveOrdersByUser(ctx context.Context, userID int64) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = ? AND status NOT IN (?, ?)
              ORDER BY created_at DESC, id DESC`
	return db.queryOrders(ctx, query, userID, models.OrderStatusCancelled, models.OrderStatusCompleted)
}

func (db *DB) GetOrdersByItem(ctx context.Context, itemID int64) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE item_id = ? ORDER BY created_at ASC, id ASC`
	return db.queryOrders(ctx, query, itemID)
}

func (db *DB) GetOrdersByStatus(ctx context.Context, status string) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = ? ORDER BY created_at DESC, id DESC`
	return db.queryOrders(ctx, query, status)
}

func (db *DB) CountOrdersByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE status = ?`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

// GetRevenueByPeriod суммирует завершённые заказы за период. Суммы хранятся
// текстом, поэтому складываем на стороне Go.
func (db *DB) GetRevenueByPeriod(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	query := `SELECT total_amount FROM orders WHERE status = ? AND completed_at >= ? AND completed_at <= ?`
	rows, err := db.QueryContext(ctx, query, models.OrderStatusCompleted, start, end)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get revenue: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amountStr string
		if err := rows.Scan(&amountStr); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan amount: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to parse amount %q: %w", amountStr, err)
		}
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// UpdateOrderStatus меняет статус заказа и в той же транзакции пересчитывает
// статус позиции из истории заказов, чтобы записи не разъезжались.
func (db *DB) UpdateOrderStatus(ctx context.Context, orderID int64, newStatus string, ttl time.Duration) (*models.Order, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	order, err := scanOrder(tx.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, orderID))
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order in tx: %w", err)
	}

	// completed_at живёт только у завершённых заказов: при уходе из completed метка снимается
	var completedAt *time.Time
	if newStatus == models.OrderStatusCompleted {
		completedAt = order.CompletedAt
		if completedAt == nil {
			now := time.Now().UTC()
			completedAt = &now
		}
	}

	_, err = tx.ExecContext(ctx, `UPDATE orders SET status = ?, completed_at = ? WHERE id = ?`,
		newStatus, completedAt, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	if order.Status != newStatus {
		if err := reconcileItemTx(ctx, tx, order.ItemID, ttl); err != nil {
			return nil, err
		}
	}

	order.Status = newStatus
	order.CompletedAt = completedAt
	return order, tx.Commit()
}

// DeleteOrder удаляет заказ и пересчитывает статус позиции в той же транзакции.
func (db *DB) DeleteOrder(ctx context.Context, orderID int64, ttl time.Duration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	order, err := scanOrder(tx.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, orderID))
	if err == sql.ErrNoRows {
		return ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get order in tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, orderID); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	if err := reconcileItemTx(ctx, tx, order.ItemID, ttl); err != nil {
		return err
	}

	return tx.Commit()
}

func (db *DB) queryOrders(ctx context.Context, query string, args ...any) ([]*models.Order, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}
