package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/linemk/ecofinds/internal/domain/models"
)

var ErrProductNotFound = errors.New("product not found")

// ProductStorage описывает методы для работы с таблицей товаров.
// Удаление мягкое: строка остаётся, чтобы на неё могли ссылаться старые заказы и корзины.
type ProductStorage interface {
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	// GetProductByID возвращает товар, в том числе удалённый (DeletedAt != nil).
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	// UpdateProduct обновляет только активный товар.
	UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	SoftDeleteProduct(ctx context.Context, id int64) error
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error)
	ListProductsByOwner(ctx context.Context, ownerID int64) ([]*models.Product, error)
	CountProductsByOwner(ctx context.Context, ownerID int64) (int, error)
}

// productRepository — конкретная реализация интерфейса ProductStorage.
type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт новый репозиторий товаров.
func NewProductRepository(db *sql.DB) ProductStorage {
	return &productRepository{db: db}
}

const productColumns = "id, owner_id, title, description, category, price, image_url, created_at, updated_at, deleted_at"

func scanProduct(row rowScanner) (*models.Product, error) {
	product := &models.Product{}
	var (
		category  string
		imageURL  sql.NullString
		deletedAt sql.NullTime
	)
	err := row.Scan(&product.ID, &product.OwnerID, &product.Title, &product.Description, &category,
		&product.Price, &imageURL, &product.CreatedAt, &product.UpdatedAt, &deletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	product.Category = models.Category(category)
	product.ImageURL = imageURL.String
	if deletedAt.Valid {
		product.DeletedAt = &deletedAt.Time
	}
	return product, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *productRepository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	query := `INSERT INTO products (owner_id, title, description, category, price, image_url)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		product.OwnerID, product.Title, product.Description, string(product.Category), product.Price, nullString(product.ImageURL),
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (r *productRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	return scanProduct(row)
}

func (r *productRepository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	query := `UPDATE products
	          SET title = $1, description = $2, category = $3, price = $4, image_url = $5, updated_at = NOW()
	          WHERE id = $6 AND deleted_at IS NULL
	          RETURNING ` + productColumns
	row := r.db.QueryRowContext(ctx, query,
		product.Title, product.Description, string(product.Category), product.Price, nullString(product.ImageURL), product.ID,
	)
	return scanProduct(row)
}

func (r *productRepository) SoftDeleteProduct(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE products SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ListProducts возвращает активные товары, новые первыми.
// Query ищется как подстрока в названии без учёта регистра, Category — точное совпадение.
func (r *productRepository) ListProducts(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE deleted_at IS NULL"
	var args []any
	if filter.Query != "" {
		args = append(args, "%"+likeEscaper.Replace(filter.Query)+"%")
		query += fmt.Sprintf(" AND title ILIKE $%d", len(args))
	}
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	query += " ORDER BY created_at DESC, id DESC"

	return r.queryProducts(ctx, query, args...)
}

func (r *productRepository) ListProductsByOwner(ctx context.Context, ownerID int64) ([]*models.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE owner_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC, id DESC"
	return r.queryProducts(ctx, query, ownerID)
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...any) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]*models.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) CountProductsByOwner(ctx context.Context, ownerID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM products WHERE owner_id = $1 AND deleted_at IS NULL", ownerID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}
