package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/hongminglow/storefront-api/internal/http/respond"
	"github.com/hongminglow/storefront-api/internal/models"
	"github.com/hongminglow/storefront-api/internal/models/dto"
	"github.com/hongminglow/storefront-api/internal/query"
	"github.com/hongminglow/storefront-api/internal/storage"
)

// userId is absent on purpose: listing is always scoped to the caller.
var (
	orderFilterFields = query.NewFields("id", "productId", "quantity", "paid", "createdAt", "updatedAt")
	orderSortFields   = query.NewFields("quantity", "createdAt", "updatedAt")
)

// OrderHandler serves /api/order. Every route is scoped to the caller's own orders.
type OrderHandler struct {
	orders   storage.OrderStore
	products storage.ProductStore
}

func NewOrderHandler(orders storage.OrderStore, products storage.ProductStore) *OrderHandler {
	return &OrderHandler{orders: orders, products: products}
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	params, err := listParams(r, orderFilterFields, orderSortFields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	params.Filter.Set(query.Condition{Field: "userId", Op: query.Eq, Value: strconv.FormatInt(p.UserID, 10)})

	orders, err := h.orders.ListOrders(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	docs, err := h.withProducts(r.Context(), orders)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.Docs(docs))
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := ownedID(r, h.orders.OrderExists)
	if err != nil {
		writeError(w, r, err)
		return
	}
	order, err := h.orders.FindOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	docs, err := h.withProducts(r.Context(), []models.Order{order})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.Docs(docs))
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req dto.CreateOrderRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireOwner(p, int64(req.UserID)); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.checkStock(r.Context(), req.ProductID, req.Quantity); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := h.orders.CreateOrder(r.Context(), models.Order{
		UserID:    p.UserID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Paid:      req.Paid,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, respond.Created{Envelope: respond.OK(), LastInsertedID: id})
}

func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := ownedID(r, h.orders.OrderExists)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req dto.UpdateOrderRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if req.ProductID != nil || req.Quantity != nil {
		current, err := h.orders.FindOrder(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		productID, quantity := current.ProductID, current.Quantity
		if req.ProductID != nil {
			productID = *req.ProductID
		}
		if req.Quantity != nil {
			quantity = *req.Quantity
		}
		if err := h.checkStock(r.Context(), productID, quantity); err != nil {
			writeError(w, r, err)
			return
		}
	}

	affected, err := h.orders.UpdateOrder(r.Context(), id, storage.OrderPatch{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Paid:      req.Paid,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.Affected{Envelope: respond.OK(), Affected: affected})
}

func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := ownedID(r, h.orders.OrderExists)
	if err != nil {
		writeError(w, r, err)
		return
	}
	affected, err := h.orders.DeleteOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.Affected{Envelope: respond.OK(), Affected: affected})
}

// checkStock requires productID to exist with at least quantity units in stock.
func (h *OrderHandler) checkStock(ctx context.Context, productID, quantity int64) error {
	product, err := h.products.FindProduct(ctx, productID)
	if errors.Is(err, storage.ErrNotFound) {
		return newClientError(http.StatusForbidden, msgInvalidProduct)
	}
	if err != nil {
		return err
	}
	if product.Quantity < quantity {
		return newClientError(http.StatusForbidden, msgInsufficientStock)
	}
	return nil
}

// withProducts embeds each order's product, fetching every distinct product once.
// A product deleted since the order was placed is embedded as null.
func (h *OrderHandler) withProducts(ctx context.Context, orders []models.Order) ([]models.OrderWithProduct, error) {
	cache := make(map[int64]*models.Product)
	docs := make([]models.OrderWithProduct, 0, len(orders))
	for _, o := range orders {
		product, seen := cache[o.ProductID]
		if !seen {
			found, err := h.products.FindProduct(ctx, o.ProductID)
			switch {
			case err == nil:
				product = &found
			case !errors.Is(err, storage.ErrNotFound):
				return nil, err
			}
			cache[o.ProductID] = product
		}
		docs = append(docs, models.OrderWithProduct{Order: o, Product: product})
	}
	return docs, nil
}
