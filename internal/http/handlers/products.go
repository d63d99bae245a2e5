package handlers

import (
	"net/http"

	"github.com/hongminglow/storefront-api/internal/http/respond"
	"github.com/hongminglow/storefront-api/internal/models"
	"github.com/hongminglow/storefront-api/internal/models/dto"
	"github.com/hongminglow/storefront-api/internal/query"
	"github.com/hongminglow/storefront-api/internal/storage"
)

var (
	productFilterFields = query.NewFields("id", "userId", "categoryId", "title", "price", "quantity", "createdAt", "updatedAt")
	productSortFields   = query.NewFields("price", "quantity", "title", "createdAt")
)

// ProductHandler serves /api/product. Reads are public.
type ProductHandler struct {
	store storage.ProductStore
}

func NewProductHandler(store storage.ProductStore) *ProductHandler {
	return &ProductHandler{store: store}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := listParams(r, productFilterFields, productSortFields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	products, err := h.store.ListProducts(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.Docs(products))
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	product, err := h.store.FindProduct(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.Docs([]models.Product{product}))
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req dto.CreateProductRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireOwner(p, int64(req.UserID)); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := h.store.CreateProduct(r.Context(), models.Product{
		UserID:      p.UserID,
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Image:       req.Image,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, respond.Created{Envelope: respond.OK(), LastInsertedID: id})
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := ownedID(r, h.store.ProductExists)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req dto.UpdateProductRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	affected, err := h.store.UpdateProduct(r.Context(), id, storage.ProductPatch{
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Image:       req.Image,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.Affected{Envelope: respond.OK(), Affected: affected})
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := ownedID(r, h.store.ProductExists)
	if err != nil {
		writeError(w, r, err)
		return
	}
	affected, err := h.store.DeleteProduct(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.Affected{Envelope: respond.OK(), Affected: affected})
}
