package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/ecofinds/internal/domain/models"
	"github.com/linemk/ecofinds/internal/storage"
)

// CartService — корзина пользователя: товар -> количество.
type CartService interface {
	Add(ctx context.Context, sess *models.Session, productID int64, quantity int) error
	SetQuantity(ctx context.Context, sess *models.Session, productID int64, quantity int) error
	Remove(ctx context.Context, sess *models.Session, productID int64) error
	View(ctx context.Context, sess *models.Session) (*models.Cart, error)
}

type cartService struct {
	log         *slog.Logger
	cartRepo    storage.CartStorage
	productRepo storage.ProductStorage
}

func NewCartService(log *slog.Logger, cartRepo storage.CartStorage, productRepo storage.ProductStorage) CartService {
	return &cartService{
		log:         log,
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// activeProduct возвращает ErrNotFound и для несуществующего, и для удалённого товара.
func (s *cartService) activeProduct(ctx context.Context, productID int64) (*models.Product, error) {
	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if !product.Active() {
		return nil, ErrNotFound
	}
	return product, nil
}

// Add добавляет quantity единиц товара. Если товар уже в корзине, количество увеличивается.
func (s *cartService) Add(ctx context.Context, sess *models.Session, productID int64, quantity int) error {
	const op = "service.Cart.Add"
	if err := requireSession(sess); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	logger := s.log.With(
		slog.String("op", op),
		slog.Int64("userID", sess.UserID),
		slog.Int64("productID", productID),
		slog.Int("quantity", quantity),
	)

	if quantity < 1 || quantity > models.MaxQuantity {
		return fmt.Errorf("%s: quantity must be 1-%d: %w", op, models.MaxQuantity, ErrInvalidInput)
	}
	if _, err := s.activeProduct(ctx, productID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cartRepo.AddItem(ctx, sess.UserID, productID, quantity, models.MaxQuantity); err != nil {
		if errors.Is(err, storage.ErrQuantityLimit) {
			logger.Warn("cart quantity limit reached")
			return fmt.Errorf("%s: quantity would exceed %d: %w", op, models.MaxQuantity, ErrInvalidInput)
		}
		logger.Error("failed to add cart item", slog.Any("error", err))
		return fmt.Errorf("%s: failed to add cart item: %w", op, err)
	}

	logger.Info("added to cart")
	return nil
}

// SetQuantity выставляет количество ровно в quantity. Ноль убирает товар из корзины.
func (s *cartService) SetQuantity(ctx context.Context, sess *models.Session, productID int64, quantity int) error {
	const op = "service.Cart.SetQuantity"
	if err := requireSession(sess); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	logger := s.log.With(
		slog.String("op", op),
		slog.Int64("userID", sess.UserID),
		slog.Int64("productID", productID),
		slog.Int("quantity", quantity),
	)

	switch {
	case quantity < 0 || quantity > models.MaxQuantity:
		return fmt.Errorf("%s: quantity must be 0-%d: %w", op, models.MaxQuantity, ErrInvalidInput)
	case quantity == 0:
		if err := s.cartRepo.RemoveItem(ctx, sess.UserID, productID); err != nil {
			logger.Error("failed to remove cart item", slog.Any("error", err))
			return fmt.Errorf("%s: failed to remove cart item: %w", op, err)
		}
		logger.Info("removed from cart")
		return nil
	}

	if _, err := s.activeProduct(ctx, productID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cartRepo.SetItemQuantity(ctx, sess.UserID, productID, quantity); err != nil {
		logger.Error("failed to set cart item quantity", slog.Any("error", err))
		return fmt.Errorf("%s: failed to set cart item quantity: %w", op, err)
	}

	logger.Info("cart quantity set")
	return nil
}

// Remove идемпотентен: удаление отсутствующего товара не ошибка.
func (s *cartService) Remove(ctx context.Context, sess *models.Session, productID int64) error {
	const op = "service.Cart.Remove"
	if err := requireSession(sess); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cartRepo.RemoveItem(ctx, sess.UserID, productID); err != nil {
		s.log.Error("failed to remove cart item",
			slog.String("op", op),
			slog.Int64("userID", sess.UserID),
			slog.Int64("productID", productID),
			slog.Any("error", err),
		)
		return fmt.Errorf("%s: failed to remove cart item: %w", op, err)
	}
	return nil
}

// View показывает корзину по текущим ценам. Удалённые после добавления товары
// остаются в списке с Available=false.
func (s *cartService) View(ctx context.Context, sess *models.Session) (*models.Cart, error) {
	const op = "service.Cart.View"
	if err := requireSession(sess); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lines, err := s.cartRepo.GetCartLines(ctx, sess.UserID)
	if err != nil {
		s.log.Error("failed to get cart", slog.String("op", op), slog.Int64("userID", sess.UserID), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get cart: %w", op, err)
	}
	cart, err := models.NewCart(sess.UserID, lines)
	if err != nil {
		s.log.Warn("cart total out of range", slog.String("op", op), slog.Int64("userID", sess.UserID), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidInput, err)
	}
	return cart, nil
}
