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
	categoryFilterFields = query.NewFields("id", "userId", "title", "createdAt", "updatedAt")
	categorySortFields   = query.NewFields("id", "title", "createdAt", "updatedAt")
)

// CategoryHandler serves /api/category.
type CategoryHandler struct {
	store storage.CategoryStore
}

func NewCategoryHandler(store storage.CategoryStore) *CategoryHandler {
	return &CategoryHandler{store: store}
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := listParams(r, categoryFilterFields, categorySortFields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cats, err := h.store.ListCategories(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.Docs(cats))
}

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cat, err := h.store.FindCategory(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.Docs([]models.Category{cat}))
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req dto.CreateCategoryRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireOwner(p, int64(req.UserID)); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := h.store.CreateCategory(r.Context(), models.Category{UserID: p.UserID, Title: req.Title})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, respond.Created{Envelope: respond.OK(), LastInsertedID: id})
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := ownedID(r, h.store.CategoryExists)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req dto.UpdateCategoryRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	affected, err := h.store.UpdateCategory(r.Context(), id, storage.CategoryPatch{Title: req.Title})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.Affected{Envelope: respond.OK(), Affected: affected})
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := ownedID(r, h.store.CategoryExists)
	if err != nil {
		writeError(w, r, err)
		return
	}
	affected, err := h.store.DeleteCategory(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.Affected{Envelope: respond.OK(), Affected: affected})
}
