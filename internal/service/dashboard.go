package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linemk/ecofinds/internal/domain/models"
	"github.com/linemk/ecofinds/internal/storage"
)

// DashboardService определяет интерфейс для получения сводки по пользователю.
type DashboardService interface {
	GetDashboard(ctx context.Context, sess *models.Session) (*Dashboard, error)
}

type dashboardService struct {
	log         *slog.Logger
	userRepo    storage.UserStorage
	productRepo storage.ProductStorage
	orderRepo   storage.OrderStorage
	cartRepo    storage.CartStorage
}

func NewDashboardService(
	log *slog.Logger,
	userRepo storage.UserStorage,
	productRepo storage.ProductStorage,
	orderRepo storage.OrderStorage,
	cartRepo storage.CartStorage,
) DashboardService {
	return &dashboardService{
		log:         log,
		userRepo:    userRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
	}
}

// Dashboard — сводка для личного кабинета
type Dashboard struct {
	User          *models.User `json:"user"`
	ListingsCount int          `json:"listings_count"`
	OrdersCount   int          `json:"orders_count"`
	CartCount     int          `json:"cart_count"` // суммарное количество единиц в корзине
}

func (s *dashboardService) GetDashboard(ctx context.Context, sess *models.Session) (*Dashboard, error) {
	const op = "service.Dashboard.GetDashboard"
	if err := requireSession(sess); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", sess.UserID))
	logger.Info("getting dashboard")

	user, err := s.userRepo.GetUserByID(ctx, sess.UserID)
	if err != nil {
		logger.Error("failed to get user by id", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	listings, err := s.productRepo.CountProductsByOwner(ctx, sess.UserID)
	if err != nil {
		logger.Error("failed to count listings", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to count listings: %w", op, err)
	}

	orders, err := s.orderRepo.CountOrdersByUser(ctx, sess.UserID)
	if err != nil {
		logger.Error("failed to count orders", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to count orders: %w", op, err)
	}

	cartCount, err := s.cartRepo.CountItemsByUser(ctx, sess.UserID)
	if err != nil {
		logger.Error("failed to count cart items", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to count cart items: %w", op, err)
	}

	return &Dashboard{
		User:          user,
		ListingsCount: listings,
		OrdersCount:   orders,
		CartCount:     cartCount,
	}, nil
}
