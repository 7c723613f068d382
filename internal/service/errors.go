package service

import (
	"errors"
	"fmt"
)

// Ошибки бизнес-логики. Хендлеры сопоставляют их с HTTP-статусами через errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrTransactionFailed  = errors.New("transaction failed")
)

// ProductUnavailableError называет товар, из-за которого не удалось оформить заказ.
type ProductUnavailableError struct {
	ProductID int64
	Title     string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %d (%q) is no longer available", e.ProductID, e.Title)
}

func (e *ProductUnavailableError) Is(target error) bool {
	return target == ErrProductUnavailable
}
