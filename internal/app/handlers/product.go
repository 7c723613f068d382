package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/ecofinds/internal/domain/models"
	"github.com/linemk/ecofinds/internal/service"
)

// ProductRequest — тело запроса на создание и изменение объявления
type ProductRequest struct {
	Title       string `json:"title" validate:"required,max=120"`
	Description string `json:"description" validate:"max=4000"`
	Category    string `json:"category" validate:"omitempty,oneof=Home Fashion Electronics Outdoors Beauty Other"`
	Price       int64  `json:"price" validate:"gte=0,lte=100000000000"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
}

func (req ProductRequest) input() service.ProductInput {
	return service.ProductInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    models.Category(req.Category),
		Price:       req.Price,
		ImageURL:    req.ImageURL,
	}
}

// ListProductsHandler обрабатывает GET /api/products?q=&category=
func ListProductsHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListProductsHandler"
		logger := log.With(slog.String("op", op))

		filter := models.ProductFilter{
			Query:    r.URL.Query().Get("q"),
			Category: models.Category(r.URL.Query().Get("category")),
		}

		products, err := catalog.List(r.Context(), filter)
		if err != nil {
			writeError(w, logger, "failed to list products", err)
			return
		}
		writeJSON(w, logger, http.StatusOK, products)
	}
}

// GetProductHandler обрабатывает GET /api/products/{id}
func GetProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetProductHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}

		product, err := catalog.Get(r.Context(), id)
		if err != nil {
			writeError(w, logger, "failed to get product", err)
			return
		}
		writeJSON(w, logger, http.StatusOK, product)
	}
}

// CreateProductHandler обрабатывает POST /api/products
func CreateProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateProductHandler"
		logger := log.With(slog.String("op", op))

		sess, ok := sessionFromRequest(w, r, logger)
		if !ok {
			return
		}

		var req ProductRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		product, err := catalog.Create(r.Context(), sess, req.input())
		if err != nil {
			writeError(w, logger, "failed to create product", err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, product)
	}
}

// UpdateProductHandler обрабатывает PUT /api/products/{id}
func UpdateProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateProductHandler"
		logger := log.With(slog.String("op", op))

		sess, ok := sessionFromRequest(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}

		var req ProductRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		product, err := catalog.Update(r.Context(), sess, id, req.input())
		if err != nil {
			writeError(w, logger, "failed to update product", err)
			return
		}
		writeJSON(w, logger, http.StatusOK, product)
	}
}

// DeleteProductHandler обрабатывает DELETE /api/products/{id}
func DeleteProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteProductHandler"
		logger := log.With(slog.String("op", op))

		sess, ok := sessionFromRequest(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}

		if err := catalog.Delete(r.Context(), sess, id); err != nil {
			writeError(w, logger, "failed to delete product", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// MyProductsHandler обрабатывает GET /api/my/products
func MyProductsHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.MyProductsHandler"
		logger := log.With(slog.String("op", op))

		sess, ok := sessionFromRequest(w, r, logger)
		if !ok {
			return
		}

		products, err := catalog.ListMine(r.Context(), sess)
		if err != nil {
			writeError(w, logger, "failed to list own products", err)
			return
		}
		writeJSON(w, logger, http.StatusOK, products)
	}
}

// CategoriesHandler обрабатывает GET /api/categories
func CategoriesHandler(log *slog.Logger) http.HandlerFunc {
	logger := log.With(slog.String("op", "handlers.CategoriesHandler"))
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, models.Categories)
	}
}
