package models

import "time"

// Session — серверная сессия пользователя. Создаётся при входе, удаляется при выходе.
// Передаётся явно в каждый вызов сервисов вместо глобального хранилища.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
