package models

import "time"

// Category — категория товара из фиксированного набора
type Category string

const (
	CategoryHome        Category = "Home"
	CategoryFashion     Category = "Fashion"
	CategoryElectronics Category = "Electronics"
	CategoryOutdoors    Category = "Outdoors"
	CategoryBeauty      Category = "Beauty"
	CategoryOther       Category = "Other"
)

// Categories — все допустимые категории в порядке показа
var Categories = []Category{
	CategoryHome,
	CategoryFashion,
	CategoryElectronics,
	CategoryOutdoors,
	CategoryBeauty,
	CategoryOther,
}

// Valid сообщает, входит ли категория в допустимый набор.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// MaxPrice — верхняя граница цены товара в минимальных единицах валюты
const MaxPrice int64 = 100_000_000_000

// Product представляет объявление о продаже
type Product struct {
	ID          int64      `json:"id"`
	OwnerID     int64      `json:"owner_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    Category   `json:"category"`
	Price       int64      `json:"price"` // в минимальных единицах валюты
	ImageURL    string     `json:"image_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// Active — товар не удалён владельцем
func (p *Product) Active() bool {
	return p.DeletedAt == nil
}

// ProductFilter — параметры выборки каталога. Пустые поля не фильтруют.
type ProductFilter struct {
	Query    string
	Category Category
}
