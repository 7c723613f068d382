package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/linemk/ecofinds/internal/domain/models"
	"github.com/linemk/ecofinds/internal/metrics"
	"github.com/linemk/ecofinds/internal/storage"
)

type OrderService interface {
	Checkout(ctx context.Context, sess *models.Session) (*models.Order, error)
	History(ctx context.Context, sess *models.Session) ([]*models.Order, error)
}

type orderService struct {
	log       *slog.Logger
	db        *sql.DB
	userRepo  storage.UserStorage
	cartRepo  storage.CartStorage
	orderRepo storage.OrderStorage
	metrics   metrics.MetricsCollector
}

func NewOrderService(
	log *slog.Logger,
	db *sql.DB,
	userRepo storage.UserStorage,
	cartRepo storage.CartStorage,
	orderRepo storage.OrderStorage,
	m metrics.MetricsCollector,
) OrderService {
	if m == nil {
		m = metrics.Nop{}
	}
	return &orderService{
		log:       log,
		db:        db,
		userRepo:  userRepo,
		cartRepo:  cartRepo,
		orderRepo: orderRepo,
		metrics:   m,
	}
}

// Checkout превращает корзину в заказ в одной транзакции.
// Строка пользователя и строки корзины блокируются FOR UPDATE, поэтому параллельные
// оформления одного пользователя выполняются по очереди. Удаляются ровно прочитанные
// строки корзины. Любая ошибка хранилища откатывает транзакцию целиком.
func (s *orderService) Checkout(ctx context.Context, sess *models.Session) (*models.Order, error) {
	const op = "service.Order.Checkout"
	if err := requireSession(sess); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", sess.UserID))
	logger.Info("starting checkout transaction")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		s.metrics.RecordCheckout(metrics.CheckoutFailed)
		return nil, fmt.Errorf("%s: failed to begin transaction: %w: %w", op, ErrTransactionFailed, err)
	}

	// fail откатывает транзакцию; ошибки хранилища оборачиваются в ErrTransactionFailed
	fail := func(outcome, msg string, err error) (*models.Order, error) {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		s.metrics.RecordCheckout(outcome)
		if outcome == metrics.CheckoutFailed {
			logger.Error(msg, slog.Any("error", err))
			return nil, fmt.Errorf("%s: %s: %w: %w", op, msg, ErrTransactionFailed, err)
		}
		logger.Warn(msg, slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.userRepo.LockUserByIDTx(ctx, tx, sess.UserID); err != nil {
		return fail(metrics.CheckoutFailed, "failed to lock user", err)
	}

	lines, err := s.cartRepo.LockCartLinesTx(ctx, tx, sess.UserID)
	if err != nil {
		return fail(metrics.CheckoutFailed, "failed to read cart", err)
	}
	if len(lines) == 0 {
		return fail(metrics.CheckoutEmptyCart, "cart is empty", ErrEmptyCart)
	}

	var total int64
	itemIDs := make([]int64, 0, len(lines))
	for _, line := range lines {
		if !line.Product.Active() {
			return fail(metrics.CheckoutUnavailable, "product unavailable", &ProductUnavailableError{
				ProductID: line.Product.ID,
				Title:     line.Product.Title,
			})
		}
		subtotal, err := models.LineSubtotal(line.Quantity, line.Product.Price)
		if err == nil {
			total, err = models.AddAmount(total, subtotal)
		}
		if err != nil {
			return fail(metrics.CheckoutInvalid, "order total out of range", fmt.Errorf("%w: %w", ErrInvalidInput, err))
		}
		itemIDs = append(itemIDs, line.ItemID)
	}

	order, err := s.orderRepo.CreateOrderTx(ctx, tx, sess.UserID, total)
	if err != nil {
		return fail(metrics.CheckoutFailed, "failed to create order", err)
	}

	order.Items = make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		productID := line.Product.ID
		item := models.OrderItem{
			OrderID:   order.ID,
			ProductID: &productID,
			Title:     line.Product.Title,
			Quantity:  line.Quantity,
			UnitPrice: line.Product.Price,
		}
		if err := s.orderRepo.CreateOrderItemTx(ctx, tx, &item); err != nil {
			return fail(metrics.CheckoutFailed, "failed to create order item", err)
		}
		order.Items = append(order.Items, item)
	}

	deleted, err := s.cartRepo.DeleteItemsTx(ctx, tx, itemIDs)
	if err != nil {
		return fail(metrics.CheckoutFailed, "failed to clear cart", err)
	}
	if deleted != int64(len(itemIDs)) {
		return fail(metrics.CheckoutFailed, "cart changed during checkout",
			fmt.Errorf("deleted %d of %d cart rows", deleted, len(itemIDs)))
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		s.metrics.RecordCheckout(metrics.CheckoutFailed)
		return nil, fmt.Errorf("%s: failed to commit transaction: %w: %w", op, ErrTransactionFailed, err)
	}

	s.metrics.RecordCheckout(metrics.CheckoutSuccess)
	s.metrics.RecordOrderTotal(order.Total)
	logger.Info("order placed", slog.Int64("orderID", order.ID), slog.Int64("total", order.Total))
	return order, nil
}

// History — заказы пользователя с позициями, новые первыми. Цены берутся из копий в заказе.
func (s *orderService) History(ctx context.Context, sess *models.Session) ([]*models.Order, error) {
	const op = "service.Order.History"
	if err := requireSession(sess); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	orders, err := s.orderRepo.GetOrdersByUserID(ctx, sess.UserID)
	if err != nil {
		s.log.Error("failed to get orders", slog.String("op", op), slog.Int64("userID", sess.UserID), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get orders: %w", op, err)
	}
	return orders, nil
}
