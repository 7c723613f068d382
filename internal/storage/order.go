package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/linemk/ecofinds/internal/domain/models"
)

// OrderStorage описывает методы для работы с заказами.
type OrderStorage interface {
	// CreateOrderTx вставляет заказ в таблицу orders с использованием транзакции.
	CreateOrderTx(ctx context.Context, tx *sql.Tx, userID int64, total int64) (*models.Order, error)
	// CreateOrderItemTx вставляет позицию заказа, заполняя item.ID.
	CreateOrderItemTx(ctx context.Context, tx *sql.Tx, item *models.OrderItem) error
	// GetOrdersByUserID возвращает заказы пользователя вместе с позициями, новые первыми.
	// Позиции читаются из своих копий, без JOIN с товарами.
	GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error)
	CountOrdersByUser(ctx context.Context, userID int64) (int, error)
}

// orderRepository — конкретная реализация OrderStorage.
type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateOrderTx(ctx context.Context, tx *sql.Tx, userID int64, total int64) (*models.Order, error) {
	order := &models.Order{UserID: userID, Total: total}
	query := `INSERT INTO orders (user_id, total, created_at) VALUES ($1, $2, NOW()) RETURNING id, created_at`
	if err := tx.QueryRowContext(ctx, query, userID, total).Scan(&order.ID, &order.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

func (r *orderRepository) CreateOrderItemTx(ctx context.Context, tx *sql.Tx, item *models.OrderItem) error {
	query := `INSERT INTO order_items (order_id, product_id, title, quantity, unit_price)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := tx.QueryRowContext(ctx, query, item.OrderID, item.ProductID, item.Title, item.Quantity, item.UnitPrice).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to create order item: %w", err)
	}
	return nil
}

func (r *orderRepository) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	query := `
		SELECT id, user_id, total, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	byID := make(map[int64]*models.Order)
	ids := make([]int64, 0)
	for rows.Next() {
		order := &models.Order{Items: []models.OrderItem{}}
		if err := rows.Scan(&order.ID, &order.UserID, &order.Total, &order.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, order)
		byID[order.ID] = order
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	// позиции всех заказов одним запросом
	itemRows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, title, quantity, unit_price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, id`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item models.OrderItem
		var productID sql.NullInt64
		if err := itemRows.Scan(&item.ID, &item.OrderID, &productID, &item.Title, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if productID.Valid {
			id := productID.Int64
			item.ProductID = &id
		}
		if order, ok := byID[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) CountOrdersByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}
