package models

import "time"

// Category groups products. Owned by UserID.
type Category struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Product is a sellable item with stock tracked in Quantity.
type Product struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	CategoryID  int64     `json:"categoryId"`
	Title       string    `json:"title"`
	Image       string    `json:"image"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Quantity    int64     `json:"quantity"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Order is a user's request for Quantity units of a product.
type Order struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	ProductID int64     `json:"productId"`
	Quantity  int64     `json:"quantity"`
	Paid      bool      `json:"paid"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OrderWithProduct is an order document with its referenced product embedded.
type OrderWithProduct struct {
	Order
	Product *Product `json:"product"`
}
