package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/linemk/ecofinds/internal/domain/models"
	"github.com/linemk/ecofinds/internal/lib/sanitizer"
	"github.com/linemk/ecofinds/internal/storage"
)

const (
	maxTitleLen       = 120
	maxDescriptionLen = 4000
)

// CatalogService — объявления: создание и правка владельцем, просмотр всеми.
type CatalogService interface {
	Create(ctx context.Context, sess *models.Session, in ProductInput) (*models.Product, error)
	Update(ctx context.Context, sess *models.Session, id int64, in ProductInput) (*models.Product, error)
	Delete(ctx context.Context, sess *models.Session, id int64) error
	List(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error)
	Get(ctx context.Context, id int64) (*models.Product, error)
	ListMine(ctx context.Context, sess *models.Session) ([]*models.Product, error)
}

// ProductInput — поля объявления, которые задаёт пользователь.
type ProductInput struct {
	Title       string
	Description string
	Category    models.Category
	Price       int64
	ImageURL    string
}

type catalogService struct {
	log         *slog.Logger
	productRepo storage.ProductStorage
	sanitizer   sanitizer.Sanitizer
}

func NewCatalogService(log *slog.Logger, productRepo storage.ProductStorage, san sanitizer.Sanitizer) CatalogService {
	return &catalogService{
		log:         log,
		productRepo: productRepo,
		sanitizer:   san,
	}
}

// normalize очищает текст от разметки и проверяет поля.
// Пустая категория становится Other.
func (s *catalogService) normalize(in ProductInput) (ProductInput, error) {
	in.Title = s.sanitizer.Sanitize(in.Title)
	in.Description = s.sanitizer.Sanitize(in.Description)
	in.ImageURL = strings.TrimSpace(in.ImageURL)

	if in.Title == "" || utf8.RuneCountInString(in.Title) > maxTitleLen {
		return in, fmt.Errorf("title must be 1-%d characters: %w", maxTitleLen, ErrInvalidInput)
	}
	if utf8.RuneCountInString(in.Description) > maxDescriptionLen {
		return in, fmt.Errorf("description is too long: %w", ErrInvalidInput)
	}
	if in.Price < 0 || in.Price > models.MaxPrice {
		return in, fmt.Errorf("price must be 0-%d: %w", models.MaxPrice, ErrInvalidInput)
	}
	if in.Category == "" {
		in.Category = models.CategoryOther
	}
	if !in.Category.Valid() {
		return in, fmt.Errorf("unknown category %q: %w", in.Category, ErrInvalidInput)
	}
	return in, nil
}

func (s *catalogService) Create(ctx context.Context, sess *models.Session, in ProductInput) (*models.Product, error) {
	const op = "service.Catalog.Create"
	if err := requireSession(sess); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", sess.UserID))

	in, err := s.normalize(in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	product, err := s.productRepo.CreateProduct(ctx, &models.Product{
		OwnerID:     sess.UserID,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		ImageURL:    in.ImageURL,
	})
	if err != nil {
		logger.Error("failed to create product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create product: %w", op, err)
	}

	logger.Info("product created", slog.Int64("productID", product.ID))
	return product, nil
}

// loadOwned находит активный товар и проверяет владельца.
func (s *catalogService) loadOwned(ctx context.Context, sess *models.Session, id int64) (*models.Product, error) {
	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if !product.Active() {
		return nil, ErrNotFound
	}
	if err := authorizeOwner(sess, product.OwnerID); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *catalogService) Update(ctx context.Context, sess *models.Session, id int64, in ProductInput) (*models.Product, error) {
	const op = "service.Catalog.Update"
	if err := requireSession(sess); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", sess.UserID), slog.Int64("productID", id))

	if _, err := s.loadOwned(ctx, sess, id); err != nil {
		if errors.Is(err, ErrForbidden) {
			logger.Warn("attempt to edit someone else's product")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	in, err := s.normalize(in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	product, err := s.productRepo.UpdateProduct(ctx, &models.Product{
		ID:          id,
		OwnerID:     sess.UserID,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		ImageURL:    in.ImageURL,
	})
	if err != nil {
		// товар удалили между чтением и обновлением
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		logger.Error("failed to update product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update product: %w", op, err)
	}

	logger.Info("product updated")
	return product, nil
}

// Delete помечает товар удалённым. Позиции прошлых заказов остаются нетронутыми.
func (s *catalogService) Delete(ctx context.Context, sess *models.Session, id int64) error {
	const op = "service.Catalog.Delete"
	if err := requireSession(sess); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", sess.UserID), slog.Int64("productID", id))

	if _, err := s.loadOwned(ctx, sess, id); err != nil {
		if errors.Is(err, ErrForbidden) {
			logger.Warn("attempt to delete someone else's product")
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.productRepo.SoftDeleteProduct(ctx, id); err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		logger.Error("failed to delete product", slog.Any("error", err))
		return fmt.Errorf("%s: failed to delete product: %w", op, err)
	}

	logger.Info("product deleted")
	return nil
}

// List возвращает активные товары, новые первыми.
func (s *catalogService) List(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	const op = "service.Catalog.List"

	filter.Query = strings.TrimSpace(filter.Query)
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, fmt.Errorf("%s: unknown category %q: %w", op, filter.Category, ErrInvalidInput)
	}

	products, err := s.productRepo.ListProducts(ctx, filter)
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list products: %w", op, err)
	}
	return products, nil
}

// Get — карточка товара. Удалённый товар не показывается.
func (s *catalogService) Get(ctx context.Context, id int64) (*models.Product, error) {
	const op = "service.Catalog.Get"

	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		s.log.Error("failed to get product", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get product: %w", op, err)
	}
	if !product.Active() {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return product, nil
}

func (s *catalogService) ListMine(ctx context.Context, sess *models.Session) ([]*models.Product, error) {
	const op = "service.Catalog.ListMine"
	if err := requireSession(sess); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	products, err := s.productRepo.ListProductsByOwner(ctx, sess.UserID)
	if err != nil {
		s.log.Error("failed to list own products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list own products: %w", op, err)
	}
	return products, nil
}
