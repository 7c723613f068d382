package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/linemk/ecofinds/internal/domain/models"
)

// ErrQuantityLimit — добавление превысило бы допустимое количество товара
var ErrQuantityLimit = errors.New("cart quantity limit exceeded")

// CartStorage описывает методы для работы с корзиной.
// На пару (пользователь, товар) приходится не больше одной строки, количество всегда >= 1.
type CartStorage interface {
	// AddItem увеличивает количество товара в корзине или создаёт строку.
	// Если итог превысил бы limit, строка не меняется и возвращается ErrQuantityLimit.
	AddItem(ctx context.Context, userID, productID int64, quantity, limit int) error
	// SetItemQuantity выставляет количество ровно в quantity (quantity > 0).
	SetItemQuantity(ctx context.Context, userID, productID int64, quantity int) error
	RemoveItem(ctx context.Context, userID, productID int64) error
	GetCartLines(ctx context.Context, userID int64) ([]models.CartLine, error)
	// LockCartLinesTx читает корзину и блокирует её строки до конца транзакции.
	LockCartLinesTx(ctx context.Context, tx *sql.Tx, userID int64) ([]models.CartLine, error)
	// DeleteItemsTx удаляет строки корзины по id и возвращает число удалённых.
	DeleteItemsTx(ctx context.Context, tx *sql.Tx, itemIDs []int64) (int64, error)
	CountItemsByUser(ctx context.Context, userID int64) (int, error)
}

type cartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) CartStorage {
	return &cartRepository{db: db}
}

const cartLinesQuery = `
		SELECT c.id, c.quantity,
		       p.id, p.owner_id, p.title, p.description, p.category, p.price, p.image_url, p.created_at, p.updated_at, p.deleted_at
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at, c.id`

func (r *cartRepository) AddItem(ctx context.Context, userID, productID int64, quantity, limit int) error {
	query := `INSERT INTO cart_items (user_id, product_id, quantity) VALUES ($1, $2, $3)
	          ON CONFLICT (user_id, product_id)
	          DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
	          WHERE cart_items.quantity + EXCLUDED.quantity <= $4`
	res, err := r.db.ExecContext(ctx, query, userID, productID, quantity, limit)
	if err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return ErrQuantityLimit
	}
	return nil
}

func (r *cartRepository) SetItemQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	query := `INSERT INTO cart_items (user_id, product_id, quantity) VALUES ($1, $2, $3)
	          ON CONFLICT (user_id, product_id)
	          DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = NOW()`
	if _, err := r.db.ExecContext(ctx, query, userID, productID, quantity); err != nil {
		return fmt.Errorf("failed to set cart item quantity: %w", err)
	}
	return nil
}

func (r *cartRepository) RemoveItem(ctx context.Context, userID, productID int64) error {
	query := `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, productID); err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

func (r *cartRepository) GetCartLines(ctx context.Context, userID int64) ([]models.CartLine, error) {
	rows, err := r.db.QueryContext(ctx, cartLinesQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	return scanCartLines(rows)
}

func (r *cartRepository) LockCartLinesTx(ctx context.Context, tx *sql.Tx, userID int64) ([]models.CartLine, error) {
	rows, err := tx.QueryContext(ctx, cartLinesQuery+"\n\t\tFOR UPDATE OF c", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock cart: %w", err)
	}
	return scanCartLines(rows)
}

func scanCartLines(rows *sql.Rows) ([]models.CartLine, error) {
	defer rows.Close()

	lines := make([]models.CartLine, 0)
	for rows.Next() {
		var line models.CartLine
		var (
			category  string
			imageURL  sql.NullString
			deletedAt sql.NullTime
		)
		p := &line.Product
		if err := rows.Scan(&line.ItemID, &line.Quantity,
			&p.ID, &p.OwnerID, &p.Title, &p.Description, &category, &p.Price, &imageURL, &p.CreatedAt, &p.UpdatedAt, &deletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		p.Category = models.Category(category)
		p.ImageURL = imageURL.String
		if deletedAt.Valid {
			p.DeletedAt = &deletedAt.Time
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *cartRepository) DeleteItemsTx(ctx context.Context, tx *sql.Tx, itemIDs []int64) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE id = ANY($1)`, pq.Array(itemIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to delete cart items: %w", err)
	}
	return res.RowsAffected()
}

// CountItemsByUser возвращает суммарное количество товаров в корзине.
func (r *cartRepository) CountItemsByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM cart_items WHERE user_id = $1`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cart items: %w", err)
	}
	return count, nil
}
