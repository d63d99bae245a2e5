package handlers

import (
	"net/http"

	"github.com/hongminglow/storefront-api/internal/http/respond"
	"github.com/hongminglow/storefront-api/internal/models"
	"github.com/hongminglow/storefront-api/internal/query"
	"github.com/hongminglow/storefront-api/internal/storage"
)

var (
	userFilterFields = query.NewFields("id", "email", "firstName", "lastName", "role")
	userSortFields   = query.NewFields("id", "email", "lastName", "role")
)

// UserHandler serves /api/users.
type UserHandler struct {
	store storage.UserStore
}

func NewUserHandler(store storage.UserStore) *UserHandler {
	return &UserHandler{store: store}
}

// List is restricted to administrators by the router.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := listParams(r, userFilterFields, userSortFields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	users, err := h.store.ListUsers(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.Docs(users))
}

// Me returns the caller's own account.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.store.FindByID(r.Context(), p.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.Docs([]models.User{user}))
}
