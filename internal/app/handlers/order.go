package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/ecofinds/internal/service"
)

// CheckoutHandler обрабатывает POST /api/checkout
func CheckoutHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CheckoutHandler"
		logger := log.With(slog.String("op", op))

		// сессию кладёт JWT middleware
		sess, ok := sessionFromRequest(w, r, logger)
		if !ok {
			return
		}

		order, err := orders.Checkout(r.Context(), sess)
		if err != nil {
			writeError(w, logger, "checkout failed", err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, order)
	}
}

// OrdersHandler обрабатывает GET /api/orders
func OrdersHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.OrdersHandler"
		logger := log.With(slog.String("op", op))

		sess, ok := sessionFromRequest(w, r, logger)
		if !ok {
			return
		}

		history, err := orders.History(r.Context(), sess)
		if err != nil {
			writeError(w, logger, "failed to get orders", err)
			return
		}
		writeJSON(w, logger, http.StatusOK, history)
	}
}
