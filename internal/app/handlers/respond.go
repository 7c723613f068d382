package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/linemk/ecofinds/internal/domain/models"
	"github.com/linemk/ecofinds/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/ecofinds/internal/service"
)

var validate = validator.New()

// errorStatus сопоставляет ошибку сервиса с HTTP-статусом и текстом для клиента.
func errorStatus(err error) (int, string) {
	var unavailable *service.ProductUnavailableError
	switch {
	case errors.As(err, &unavailable):
		return http.StatusConflict, unavailable.Error()
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "already exists"
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "invalid input"
	case errors.Is(err, service.ErrEmptyCart):
		return http.StatusUnprocessableEntity, "cart is empty"
	case errors.Is(err, service.ErrTransactionFailed):
		return http.StatusServiceUnavailable, "checkout failed, please retry"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	status, text := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, slog.Any("error", err))
	} else {
		logger.Info(msg, slog.Any("error", err))
	}
	http.Error(w, text, status)
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", slog.Any("error", err))
	}
}

// decodeAndValidate читает JSON-тело и проверяет его по тегам validate.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Error("invalid request: decoding error", slog.Any("error", err))
		http.Error(w, "invalid request", http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		logger.Error("invalid request: validation error", slog.Any("error", err))
		http.Error(w, "validation error", http.StatusBadRequest)
		return false
	}
	return true
}

// sessionFromRequest достаёт сессию, которую положил JWT middleware.
func sessionFromRequest(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*models.Session, bool) {
	sess, ok := jwtmiddleware.FromContext(r.Context())
	if !ok {
		logger.Error("session not found in context")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	return sess, true
}

func idParam(w http.ResponseWriter, r *http.Request, logger *slog.Logger, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		logger.Error("bad id parameter", slog.String("param", name))
		http.Error(w, "invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
