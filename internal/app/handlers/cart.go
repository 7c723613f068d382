package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/ecofinds/internal/service"
)

// AddToCartRequest — quantity можно не передавать, тогда добавляется одна штука
type AddToCartRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  *int  `json:"quantity"`
}

type SetQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// CartHandler обрабатывает GET /api/cart
func CartHandler(log *slog.Logger, cart service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CartHandler"
		logger := log.With(slog.String("op", op))

		sess, ok := sessionFromRequest(w, r, logger)
		if !ok {
			return
		}

		view, err := cart.View(r.Context(), sess)
		if err != nil {
			writeError(w, logger, "failed to get cart", err)
			return
		}
		writeJSON(w, logger, http.StatusOK, view)
	}
}

// AddToCartHandler обрабатывает POST /api/cart/items
func AddToCartHandler(log *slog.Logger, cart service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddToCartHandler"
		logger := log.With(slog.String("op", op))

		sess, ok := sessionFromRequest(w, r, logger)
		if !ok {
			return
		}

		var req AddToCartRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}
		quantity := 1
		if req.Quantity != nil {
			quantity = *req.Quantity
		}

		if err := cart.Add(r.Context(), sess, req.ProductID, quantity); err != nil {
			writeError(w, logger, "failed to add to cart", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SetCartQuantityHandler обрабатывает PUT /api/cart/items/{productID}. Количество 0 убирает товар.
func SetCartQuantityHandler(log *slog.Logger, cart service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.SetCartQuantityHandler"
		logger := log.With(slog.String("op", op))

		sess, ok := sessionFromRequest(w, r, logger)
		if !ok {
			return
		}
		productID, ok := idParam(w, r, logger, "productID")
		if !ok {
			return
		}

		var req SetQuantityRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		if err := cart.SetQuantity(r.Context(), sess, productID, *req.Quantity); err != nil {
			writeError(w, logger, "failed to set quantity", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// RemoveFromCartHandler обрабатывает DELETE /api/cart/items/{productID}
func RemoveFromCartHandler(log *slog.Logger, cart service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RemoveFromCartHandler"
		logger := log.With(slog.String("op", op))

		sess, ok := sessionFromRequest(w, r, logger)
		if !ok {
			return
		}
		productID, ok := idParam(w, r, logger, "productID")
		if !ok {
			return
		}

		if err := cart.Remove(r.Context(), sess, productID); err != nil {
			writeError(w, logger, "failed to remove from cart", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
