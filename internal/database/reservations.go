package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"akkord/internal/models"

	"github.com/google/uuid"
)

// BookItem переводит available -> booked и создаёт подтверждённый заказ в одной транзакции.
// Все проверки состояния выполняются внутри транзакции: два конкурентных вызова
// не могут забронировать одну позицию.
func (db *DB) BookItem(ctx context.Context, itemID, userID int64, ttl time.Duration) (*models.Order, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	item, err := itemTx(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if err := userExistsTx(ctx, tx, userID); err != nil {
		return nil, err
	}

	if item.OwnerID == userID {
		return nil, ErrSelfDeal
	}
	if item.Status != models.ItemStatusAvailable {
		return nil, ErrNotAvailable
	}

	// Все метки времени пишутся в UTC: SQLite сравнивает их как текст,
	// и смешение поясов ломает выборку просроченных броней.
	now := time.Now().UTC()
	order, err := insertOrderTx(ctx, tx, &models.Order{
		ItemID:      itemID,
		UserID:      userID,
		Quantity:    1,
		TotalAmount: item.Price,
		Status:      models.OrderStatusConfirmed,
		CreatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	expiry := now.Add(ttl)
	err = updateItemStateTx(ctx, tx, itemID, item.Version, models.ItemStatusBooked, &userID, &expiry, nil)
	if err != nil {
		return nil, err
	}

	return order, tx.Commit()
}

// PurchaseItem списывает средства и переводит позицию в sold одной транзакцией.
// Откат любой части отменяет всё: нет состояния "оплачено, но не получено".
func (db *DB) PurchaseItem(ctx context.Context, itemID, userID int64) (*models.Order, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	item, err := itemTx(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if err := userExistsTx(ctx, tx, userID); err != nil {
		return nil, err
	}

	if item.OwnerID == userID {
		return nil, ErrSelfDeal
	}
	if item.Status == models.ItemStatusSold {
		return nil, ErrAlreadySold
	}
	if item.Status == models.ItemStatusBooked && item.ReservedBy != nil && *item.ReservedBy != userID {
		return nil, ErrReservedByOther
	}

	ok, err := debitBalanceTx(ctx, tx, userID, item.Price)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientFunds
	}

	// Открытый заказ брони закрывается: продажа завершает историю позиции
	if err := cancelOpenOrdersTx(ctx, tx, itemID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order, err := insertOrderTx(ctx, tx, &models.Order{
		ItemID:      itemID,
		UserID:      userID,
		Quantity:    1,
		TotalAmount: item.Price,
		Status:      models.OrderStatusCompleted,
		CreatedAt:   now,
		CompletedAt: &now,
	})
	if err != nil {
		return nil, err
	}

	err = updateItemStateTx(ctx, tx, itemID, item.Version, models.ItemStatusSold, nil, nil, &userID)
	if err != nil {
		return nil, err
	}

	return order, tx.Commit()
}

// CancelBooking возвращает booked -> available и отменяет открытые заказы позиции.
// Право на отмену: бронировавший пользователь, владелец или админ.
func (db *DB) CancelBooking(ctx context.Context, itemID int64, actor models.Actor) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	item, err := itemTx(ctx, tx, itemID)
	if err != nil {
		return err
	}

	if item.Status != models.ItemStatusBooked {
		return ErrNotBooked
	}
	if !models.CanCancelBooking(actor, item) {
		return ErrForbidden
	}

	if err := cancelOpenOrdersTx(ctx, tx, itemID); err != nil {
		return err
	}
	if err := updateItemStateTx(ctx, tx, itemID, item.Version, models.ItemStatusAvailable, nil, nil, nil); err != nil {
		return err
	}

	return tx.Commit()
}

// ReconcileItem выводит статус позиции из последнего заказа и перезаписывает
// расхождение. Порядок: created_at, при равенстве — id.
func (db *DB) ReconcileItem(ctx context.Context, itemID int64, ttl time.Duration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := reconcileItemTx(ctx, tx, itemID, ttl); err != nil {
		return err
	}
	return tx.Commit()
}

// ExpireReservations снимает все брони с истекшим сроком: отменяет их заказы и
// возвращает позиции в available одной транзакцией. Возвращает затронутые позиции.
func (db *DB) ExpireReservations(ctx context.Context, now time.Time) ([]*models.Item, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Сравнение хранится и выполняется в UTC независимо от пояса вызывающего
	query := `SELECT ` + itemColumns + ` FROM items WHERE status = ? AND reservation_expiry < ?`
	rows, err := tx.QueryContext(ctx, query, models.ItemStatusBooked, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to select expired reservations: %w", err)
	}

	var expired []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expired item: %w", err)
		}
		expired = append(expired, item)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, item := range expired {
		if err := cancelOpenOrdersTx(ctx, tx, item.ID); err != nil {
			return nil, err
		}
		if err := updateItemStateTx(ctx, tx, item.ID, item.Version, models.ItemStatusAvailable, nil, nil, nil); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return expired, nil
}

func itemTx(ctx context.Context, tx *sql.Tx, itemID int64) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = ?`
	item, err := scanItem(tx.QueryRowContext(ctx, query, itemID))
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item in tx: %w", err)
	}
	return item, nil
}

func userExistsTx(ctx context.Context, tx *sql.Tx, userID int64) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check user in tx: %w", err)
	}
	return nil
}

func insertOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) (*models.Order, error) {
	if order.Reference == "" {
		order.Reference = uuid.NewString()
	}
	query := `INSERT INTO orders (reference, item_id, user_id, quantity, total_amount, status, created_at, completed_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, query,
		order.Reference,
		order.ItemID,
		order.UserID,
		order.Quantity,
		order.TotalAmount.String(),
		order.Status,
		order.CreatedAt,
		order.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	order.ID = id
	return order, nil
}

// updateItemStateTx переписывает статусные поля с optimistic-guard по version.
// rows=0 означает, что позицию успела изменить параллельная транзакция.
func updateItemStateTx(ctx context.Context, tx *sql.Tx, itemID, fromVersion int64, status string, reservedBy *int64, expiry *time.Time, buyerID *int64) error {
	query := `UPDATE items SET status = ?, reserved_by = ?, reservation_expiry = ?, buyer_id = ?,
	          version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
	result, err := tx.ExecContext(ctx, query, status, reservedBy, expiry, buyerID, time.Now().UTC(), itemID, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update item state: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func cancelOpenOrdersTx(ctx context.Context, tx *sql.Tx, itemID int64) error {
	query := `UPDATE orders SET status = ? WHERE item_id = ? AND status IN (?, ?)`
	_, err := tx.ExecContext(ctx, query, models.OrderStatusCancelled, itemID,
		models.OrderStatusPending, models.OrderStatusConfirmed)
	if err != nil {
		return fmt.Errorf("failed to cancel open orders: %w", err)
	}
	return nil
}

func reconcileItemTx(ctx context.Context, tx *sql.Tx, itemID int64, ttl time.Duration) error {
	item, err := itemTx(ctx, tx, itemID)
	if err != nil {
		return err
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE item_id = ?
              ORDER BY created_at DESC, id DESC LIMIT 1`
	latest, err := scanOrder(tx.QueryRowContext(ctx, query, itemID))
	// Пустая история означает, что позицию никто не держит
	derived := models.ItemStatusAvailable
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return fmt.Errorf("failed to get latest order: %w", err)
	default:
		derived = models.ItemStatusFromOrder(latest.Status)
	}

	var (
		reservedBy *int64
		expiry     *time.Time
		buyerID    *int64
	)
	switch derived {
	case models.ItemStatusBooked:
		reservedBy = &latest.UserID
		if item.Status == models.ItemStatusBooked && item.ReservationExpiry != nil {
			expiry = item.ReservationExpiry
		} else {
			e := time.Now().UTC().Add(ttl)
			expiry = &e
		}
	case models.ItemStatusSold:
		buyerID = &latest.UserID
	}

	if item.Status == derived &&
		equalInt64Ptr(item.ReservedBy, reservedBy) &&
		equalInt64Ptr(item.BuyerID, buyerID) {
		return nil
	}

	return updateItemStateTx(ctx, tx, itemID, item.Version, derived, reservedBy, expiry, buyerID)
}

func equalInt64Ptr(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
