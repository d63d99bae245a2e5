package storage

import (
	"context"
	"errors"

	"github.com/hongminglow/storefront-api/internal/models"
	"github.com/hongminglow/storefront-api/internal/query"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrReference indicates a foreign key violation: the row points at a missing
// record, or is still referenced by another row.
var ErrReference = errors.New("record reference violated")

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ListParams selects a page of rows matching Filter, ordered by Sort.
type ListParams struct {
	Page   int
	Limit  int
	Filter query.Filter
	Sort   query.Sort
}

// Normalize fills in defaults and clamps Limit to MaxLimit.
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset is the number of rows skipped before the page starts.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// UserStore captures persistence operations for accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
	ListUsers(ctx context.Context, params ListParams) ([]models.User, error)
}

// TokenStore persists issued token bookkeeping.
type TokenStore interface {
	// UpsertToken inserts tok or, when a row for (UserID, Type) already exists,
	// refreshes its Value, LastUsedAt and ExpiresAt in the same statement.
	// The returned token carries the row's stable ID.
	UpsertToken(ctx context.Context, tok models.Token) (models.Token, error)
	FindToken(ctx context.Context, userID int64, typ models.TokenType) (models.Token, error)
}

// CategoryPatch holds the optional columns of a category update.
type CategoryPatch struct {
	Title *string
}

// ProductPatch holds the optional columns of a product update.
type ProductPatch struct {
	CategoryID  *int64
	Title       *string
	Image       *string
	Description *string
	Price       *float64
	Quantity    *int64
}

// OrderPatch holds the optional columns of an order update.
type OrderPatch struct {
	ProductID *int64
	Quantity  *int64
	Paid      *bool
}

// CategoryStore persists categories. Exists reports whether a row with id is owned by userID.
type CategoryStore interface {
	ListCategories(ctx context.Context, params ListParams) ([]models.Category, error)
	FindCategory(ctx context.Context, id int64) (models.Category, error)
	CategoryExists(ctx context.Context, id, userID int64) (bool, error)
	CreateCategory(ctx context.Context, c models.Category) (int64, error)
	UpdateCategory(ctx context.Context, id int64, patch CategoryPatch) (int64, error)
	DeleteCategory(ctx context.Context, id int64) (int64, error)
}

// ProductStore persists products.
type ProductStore interface {
	ListProducts(ctx context.Context, params ListParams) ([]models.Product, error)
	FindProduct(ctx context.Context, id int64) (models.Product, error)
	ProductExists(ctx context.Context, id, userID int64) (bool, error)
	CreateProduct(ctx context.Context, p models.Product) (int64, error)
	UpdateProduct(ctx context.Context, id int64, patch ProductPatch) (int64, error)
	DeleteProduct(ctx context.Context, id int64) (int64, error)
}

// OrderStore persists orders.
type OrderStore interface {
	ListOrders(ctx context.Context, params ListParams) ([]models.Order, error)
	FindOrder(ctx context.Context, id int64) (models.Order, error)
	OrderExists(ctx context.Context, id, userID int64) (bool, error)
	CreateOrder(ctx context.Context, o models.Order) (int64, error)
	UpdateOrder(ctx context.Context, id int64, patch OrderPatch) (int64, error)
	DeleteOrder(ctx context.Context, id int64) (int64, error)
}
