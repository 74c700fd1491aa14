package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"akkord/internal/models"

	"github.com/shopspring/decimal"
)

const itemColumns = `id, name, description, price, owner_id, status, reserved_by, reservation_expiry, buyer_id, created_at, updated_at, version`

func scanItem(row interface{ Scan(...any) error }) (*models.Item, error) {
	var (
		item       models.Item
		priceStr   string
		reservedBy sql.NullInt64
		expiry     sql.NullTime
		buyerID    sql.NullInt64
	)
	err := row.Scan(
		&item.ID, &item.Name, &item.Description, &priceStr, &item.OwnerID, &item.Status,
		&reservedBy, &expiry, &buyerID, &item.CreatedAt, &item.UpdatedAt, &item.Version,
	)
	if err != nil {
		return nil, err
	}

	item.Price, err = decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse item price %q: %w", priceStr, err)
	}
	if reservedBy.Valid {
		item.ReservedBy = &reservedBy.Int64
	}
	if expiry.Valid {
		t := expiry.Time
		item.ReservationExpiry = &t
	}
	if buyerID.Valid {
		item.BuyerID = &buyerID.Int64
	}
	return &item, nil
}

func (db *DB) CreateItem(ctx context.Context, item *models.Item) error {
	query := `INSERT INTO items (name, description, price, owner_id, status, created_at, updated_at, version)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	status := item.Status
	if status == "" {
		status = models.ItemStatusAvailable
	}
	result, err := db.ExecContext(ctx, query,
		item.Name,
		item.Description,
		item.Price.String(),
		item.OwnerID,
		status,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	item.ID = id
	item.Status = status
	item.CreatedAt = now
	item.UpdatedAt = now
	item.Version = 1

	return nil
}

func (db *DB) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = ?`
	item, err := scanItem(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

func (db *DB) GetAllItems(ctx context.Context) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items ORDER BY id`
	return db.queryItems(ctx, query)
}

func (db *DB) GetAvailableItems(ctx context.Context) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE status = ? ORDER BY id`
	return db.queryItems(ctx, query, models.ItemStatusAvailable)
}

func (db *DB) GetItemsByOwner(ctx context.Context, ownerID int64) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE owner_id = ? ORDER BY id`
	return db.queryItems(ctx, query, ownerID)
}

func (db *DB) queryItems(ctx context.Context, query string, args ...any) ([]*models.Item, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateItemDetails обновляет каталожные поля; статусные поля меняет только движок брони
func (db *DB) UpdateItemDetails(ctx context.Context, item *models.Item) error {
	query := `UPDATE items SET name = ?, description = ?, price = ?, updated_at = ?, version = version + 1
              WHERE id = ? AND version = ?`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query, item.Name, item.Description, item.Price.String(), now, item.ID, item.Version)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	item.UpdatedAt = now
	item.Version++
	return nil
}
