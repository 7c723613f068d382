package models

import (
	"errors"
	"fmt"
	"math"
)

// MaxQuantity — верхняя граница количества одного товара в корзине
const MaxQuantity = 10_000

// ErrAmountOverflow — сумма не помещается в int64
var ErrAmountOverflow = errors.New("amount overflows int64")

// CartLine — строка корзины вместе с текущим состоянием товара
type CartLine struct {
	ItemID    int64   `json:"-"`
	Product   Product `json:"product"`
	Quantity  int     `json:"quantity"`
	Subtotal  int64   `json:"subtotal"`
	Available bool    `json:"available"`
}

// Cart — корзина пользователя, цены берутся из актуальных товаров
type Cart struct {
	UserID int64      `json:"user_id"`
	Lines  []CartLine `json:"lines"`
	Total  int64      `json:"total"`
}

// LineSubtotal — quantity * price с проверкой переполнения.
func LineSubtotal(quantity int, price int64) (int64, error) {
	if quantity < 0 || price < 0 {
		return 0, fmt.Errorf("negative quantity or price: %w", ErrAmountOverflow)
	}
	if quantity != 0 && price > math.MaxInt64/int64(quantity) {
		return 0, ErrAmountOverflow
	}
	return int64(quantity) * price, nil
}

// AddAmount складывает неотрицательные суммы с проверкой переполнения.
func AddAmount(total, amount int64) (int64, error) {
	if amount > math.MaxInt64-total {
		return 0, ErrAmountOverflow
	}
	return total + amount, nil
}

// NewCart считает подытоги строк и общую сумму.
func NewCart(userID int64, lines []CartLine) (*Cart, error) {
	cart := &Cart{UserID: userID, Lines: make([]CartLine, 0, len(lines))}
	for _, line := range lines {
		subtotal, err := LineSubtotal(line.Quantity, line.Product.Price)
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", line.Product.ID, err)
		}
		total, err := AddAmount(cart.Total, subtotal)
		if err != nil {
			return nil, err
		}
		line.Subtotal = subtotal
		line.Available = line.Product.Active()
		cart.Total = total
		cart.Lines = append(cart.Lines, line)
	}
	return cart, nil
}
