package storage_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/linemk/ecofinds/internal/domain/models"
	"github.com/linemk/ecofinds/internal/storage"
	"github.com/stretchr/testify/assert"
)

func TestCreateOrderTx_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectBegin()
	tx, err := db.Begin()
	assert.NoError(t, err)

	query := regexp.QuoteMeta("INSERT INTO orders (user_id, total, created_at) VALUES ($1, $2, NOW()) RETURNING id, created_at")
	mock.ExpectQuery(query).WithArgs(int64(1), int64(200)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(7, now))

	order, err := repo.CreateOrderTx(ctx, tx, 1, 200)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), order.ID)
	assert.Equal(t, int64(200), order.Total)
	assert.Equal(t, now, order.CreatedAt)

	// Ожидаем Commit.
	mock.ExpectCommit()
	assert.NoError(t, tx.Commit())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderItemTx_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)

	mock.ExpectBegin()
	tx, err := db.Begin()
	assert.NoError(t, err)

	productID := int64(5)
	query := regexp.QuoteMeta("INSERT INTO order_items (order_id, product_id, title, quantity, unit_price)")
	mock.ExpectQuery(query).WithArgs(int64(7), productID, "Bottle", 2, int64(100)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(70))

	item := &models.OrderItem{OrderID: 7, ProductID: &productID, Title: "Bottle", Quantity: 2, UnitPrice: 100}
	assert.NoError(t, repo.CreateOrderItemTx(context.Background(), tx, item))
	assert.Equal(t, int64(70), item.ID)

	mock.ExpectRollback()
	assert.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrdersByUserID_WithItems(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	userID := int64(1)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC")).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "total", "created_at"}).
			AddRow(2, userID, 300, now).
			AddRow(1, userID, 200, now.Add(-time.Hour)))

	// товар из первого заказа удалён совсем: product_id NULL, но копия названия и цены на месте
	mock.ExpectQuery(regexp.QuoteMeta("FROM order_items WHERE order_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "title", "quantity", "unit_price"}).
			AddRow(10, 1, nil, "Bottle", 2, 100).
			AddRow(20, 2, 6, "Tote", 3, 100))

	orders, err := repo.GetOrdersByUserID(context.Background(), userID)
	assert.NoError(t, err)
	assert.Len(t, orders, 2)

	assert.Equal(t, int64(2), orders[0].ID)
	assert.Len(t, orders[0].Items, 1)
	assert.Equal(t, int64(6), *orders[0].Items[0].ProductID)

	assert.Equal(t, int64(1), orders[1].ID)
	assert.Len(t, orders[1].Items, 1)
	assert.Nil(t, orders[1].Items[0].ProductID)
	assert.Equal(t, "Bottle", orders[1].Items[0].Title)
	assert.Equal(t, int64(200), orders[1].Items[0].Subtotal())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrdersByUserID_NoOrders(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)

	// без заказов второй запрос не выполняется
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE user_id = $1")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "total", "created_at"}))

	orders, err := repo.GetOrdersByUserID(context.Background(), 1)
	assert.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrdersByUserID_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)

	expectedErr := errors.New("query error")
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE user_id = $1")).
		WithArgs(int64(1)).WillReturnError(expectedErr)

	orders, err := repo.GetOrdersByUserID(context.Background(), 1)
	assert.Error(t, err)
	assert.Nil(t, orders)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountOrdersByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM orders WHERE user_id = $1")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountOrdersByUser(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
