package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/linemk/ecofinds/internal/domain/models"
)

var (
	ErrEmptySecret  = errors.New("jwt secret is empty")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims — то, что middleware достаёт из токена.
type Claims struct {
	UserID    int64
	SessionID string
}

// NewToken генерирует JWT-токен для пользователя, привязанный к серверной сессии sessionID.
func NewToken(user *models.User, sessionID string, ttl time.Duration, secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   fmt.Sprintf("%d", user.ID),
		"email": user.Email,
		"sid":   sessionID,
		"exp":   now.Add(ttl).Unix(),
		"iat":   now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(secret))
}

// ParseToken проверяет подпись и срок действия и возвращает идентификаторы пользователя и сессии.
func ParseToken(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, ok := mapClaims["sub"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: sub not found", ErrInvalidToken)
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id", ErrInvalidToken)
	}

	sid, ok := mapClaims["sid"].(string)
	if !ok || sid == "" {
		return nil, fmt.Errorf("%w: sid not found", ErrInvalidToken)
	}

	return &Claims{UserID: userID, SessionID: sid}, nil
}
