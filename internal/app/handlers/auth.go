package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/linemk/ecofinds/internal/domain/models"
	"github.com/linemk/ecofinds/internal/service"
)

// AuthRequest — вход по email и паролю
type AuthRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest — регистрация
type SignupRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"required,max=80"`
}

// AuthResponse — токен и данные пользователя
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=80"`
}

func authResponse(res *service.AuthResult) AuthResponse {
	return AuthResponse{Token: res.Token, ExpiresAt: res.Session.ExpiresAt, User: res.User}
}

// SignupHandler обрабатывает POST /api/signup. После регистрации пользователь сразу получает токен.
func SignupHandler(log *slog.Logger, identity service.IdentityServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.SignupHandler"
		logger := log.With(slog.String("op", op))

		var req SignupRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		res, err := identity.Signup(r.Context(), req.Email, req.Password, req.DisplayName)
		if err != nil {
			writeError(w, logger, "signup failed", err)
			return
		}

		writeJSON(w, logger, http.StatusCreated, authResponse(res))
	}
}

// AuthHandler обрабатывает POST /api/auth
func AuthHandler(log *slog.Logger, identity service.IdentityServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AuthHandler"
		logger := log.With(slog.String("op", op))

		var req AuthRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		res, err := identity.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, logger, "login failed", err)
			return
		}

		writeJSON(w, logger, http.StatusOK, authResponse(res))
	}
}

// LogoutHandler обрабатывает POST /api/logout
func LogoutHandler(log *slog.Logger, identity service.IdentityServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.LogoutHandler"
		logger := log.With(slog.String("op", op))

		sess, ok := sessionFromRequest(w, r, logger)
		if !ok {
			return
		}

		if err := identity.Logout(r.Context(), sess); err != nil {
			writeError(w, logger, "logout failed", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ProfileHandler обрабатывает GET /api/profile
func ProfileHandler(log *slog.Logger, identity service.IdentityServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ProfileHandler"
		logger := log.With(slog.String("op", op))

		sess, ok := sessionFromRequest(w, r, logger)
		if !ok {
			return
		}

		user, err := identity.Profile(r.Context(), sess)
		if err != nil {
			writeError(w, logger, "failed to get profile", err)
			return
		}
		writeJSON(w, logger, http.StatusOK, user)
	}
}

// UpdateProfileHandler обрабатывает PUT /api/profile, меняется только display_name
func UpdateProfileHandler(log *slog.Logger, identity service.IdentityServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateProfileHandler"
		logger := log.With(slog.String("op", op))

		sess, ok := sessionFromRequest(w, r, logger)
		if !ok {
			return
		}

		var req UpdateProfileRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		user, err := identity.UpdateProfile(r.Context(), sess, req.DisplayName)
		if err != nil {
			writeError(w, logger, "failed to update profile", err)
			return
		}
		writeJSON(w, logger, http.StatusOK, user)
	}
}
