package models

import "time"

// Order представляет оформленный заказ. После создания не меняется.
type Order struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"user_id"`
	Total     int64       `json:"total"`
	CreatedAt time.Time   `json:"created_at"`
	Items     []OrderItem `json:"items"`
}

// OrderItem — позиция заказа. Название и цена скопированы из товара на момент оформления,
// поэтому ProductID может стать nil, а изменение цены товара на заказ не влияет.
type OrderItem struct {
	ID        int64  `json:"id"`
	OrderID   int64  `json:"order_id"`
	ProductID *int64 `json:"product_id,omitempty"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

func (i OrderItem) Subtotal() int64 {
	return int64(i.Quantity) * i.UnitPrice
}
