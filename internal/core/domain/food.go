package domain

import "time"

// Money is an amount in minor currency units (paise).
type Money int64

// FoodItem is a catalog entry. Orders only ever read its current price.
type FoodItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     Money     `json:"price"`
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
