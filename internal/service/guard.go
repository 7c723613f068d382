package service

import (
	"github.com/linemk/ecofinds/internal/domain/models"
)

// requireSession — все операции над корзиной, заказами и своими товарами требуют сессию.
func requireSession(sess *models.Session) error {
	if sess == nil || sess.UserID == 0 {
		return ErrUnauthorized
	}
	return nil
}

// authorizeOwner проверяет, что ресурс принадлежит пользователю сессии.
func authorizeOwner(sess *models.Session, ownerID int64) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if sess.UserID != ownerID {
		return ErrForbidden
	}
	return nil
}
