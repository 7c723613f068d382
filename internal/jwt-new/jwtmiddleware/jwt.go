package jwtmiddleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/linemk/ecofinds/internal/domain/models"
	security "github.com/linemk/ecofinds/internal/jwt-new"
)

type contextKey string

const SessionKey contextKey = "session"

// SessionFinder находит действующую серверную сессию по её id.
// Если сессии нет или она истекла, возвращает nil без ошибки.
type SessionFinder interface {
	FindSession(ctx context.Context, id string) (*models.Session, error)
}

// NewJWTMiddleware создаёт middleware, которое проверяет JWT и кладёт сессию в контекст.
// Токен без живой сессии (после logout или по истечении срока) не принимается.
func NewJWTMiddleware(secret string, finder SessionFinder) func(http.Handler) http.Handler {
	if secret == "" {
		panic("JWT_SECRET is not set")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// формат: "Bearer <token>"
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing token", http.StatusUnauthorized)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid token format", http.StatusUnauthorized)
				return
			}

			claims, err := security.ParseToken(parts[1], secret)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			sess, err := finder.FindSession(r.Context(), claims.SessionID)
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if sess == nil {
				http.Error(w, "session expired", http.StatusUnauthorized)
				return
			}
			if sess.UserID != claims.UserID {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// WithSession кладёт сессию в контекст.
func WithSession(ctx context.Context, sess *models.Session) context.Context {
	return context.WithValue(ctx, SessionKey, sess)
}

// FromContext извлекает сессию из контекста.
func FromContext(ctx context.Context) (*models.Session, bool) {
	sess, ok := ctx.Value(SessionKey).(*models.Session)
	return sess, ok && sess != nil
}
