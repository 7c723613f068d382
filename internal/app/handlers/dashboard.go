package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/ecofinds/internal/service"
)

// DashboardHandler обрабатывает GET /api/dashboard.
// Возвращает профиль и счётчики: объявления, заказы, единицы товара в корзине.
func DashboardHandler(log *slog.Logger, dashboard service.DashboardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DashboardHandler"
		logger := log.With(slog.String("op", op))

		sess, ok := sessionFromRequest(w, r, logger)
		if !ok {
			return
		}

		info, err := dashboard.GetDashboard(r.Context(), sess)
		if err != nil {
			writeError(w, logger, "failed to get dashboard", err)
			return
		}
		writeJSON(w, logger, http.StatusOK, info)
	}
}
