package dto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hongminglow/storefront-api/internal/models"
)

// OwnerID is the userId carried by create payloads. Any integral JSON number is
// accepted; strings and fractions are not.
type OwnerID int64

func (o *OwnerID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		return fmt.Errorf("userId must be a number, got %s", b)
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	id, ok := models.UserIDFromNumber(n)
	if !ok {
		return fmt.Errorf("userId must be an integer, got %s", n)
	}
	*o = OwnerID(id)
	return nil
}

// CreateCategoryRequest is the body of POST /api/category.
type CreateCategoryRequest struct {
	UserID OwnerID `json:"userId" validate:"required"`
	Title  string  `json:"title" validate:"required"`
}

// UpdateCategoryRequest is the body of PATCH /api/category/{id}. The userId
// key is checked by the ownership guard before decoding.
type UpdateCategoryRequest struct {
	Title *string `json:"title,omitempty" validate:"omitempty,min=1"`
}

// CreateProductRequest is the body of POST /api/product.
type CreateProductRequest struct {
	UserID      OwnerID `json:"userId" validate:"required"`
	CategoryID  int64   `json:"categoryId" validate:"required"`
	Title       string  `json:"title" validate:"required"`
	Image       string  `json:"image"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	Quantity    int64   `json:"quantity" validate:"gte=0"`
}

// UpdateProductRequest is the body of PATCH /api/product/{id}.
type UpdateProductRequest struct {
	CategoryID  *int64   `json:"categoryId,omitempty" validate:"omitempty,gt=0"`
	Title       *string  `json:"title,omitempty" validate:"omitempty,min=1"`
	Image       *string  `json:"image,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Quantity    *int64   `json:"quantity,omitempty" validate:"omitempty,gte=0"`
}

// CreateOrderRequest is the body of POST /api/order.
type CreateOrderRequest struct {
	UserID    OwnerID `json:"userId" validate:"required"`
	ProductID int64   `json:"productId" validate:"required"`
	Quantity  int64   `json:"quantity" validate:"required,gt=0"`
	Paid      bool    `json:"paid"`
}

// UpdateOrderRequest is the body of PATCH /api/order/{id}.
type UpdateOrderRequest struct {
	ProductID *int64 `json:"productId,omitempty" validate:"omitempty,gt=0"`
	Quantity  *int64 `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	Paid      *bool  `json:"paid,omitempty"`
}
