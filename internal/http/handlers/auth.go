package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/hongminglow/storefront-api/internal/auth"
	"github.com/hongminglow/storefront-api/internal/http/respond"
	"github.com/hongminglow/storefront-api/internal/metrics"
	"github.com/hongminglow/storefront-api/internal/models"
	"github.com/hongminglow/storefront-api/internal/models/dto"
)

// AuthService is the account logic behind the auth routes. *auth.Service satisfies it.
type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (models.User, error)
	Login(ctx context.Context, email, password string) (auth.IssuedToken, error)
}

// AuthHandler owns the register and login endpoints.
type AuthHandler struct {
	service AuthService
	metrics metrics.Recorder
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service AuthService, recorder metrics.Recorder) *AuthHandler {
	return &AuthHandler{service: service, metrics: recorder}
}

type loginResponse struct {
	respond.Envelope
	dto.LoginResponse
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.service.Register(r.Context(), req); err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, respond.OK())
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	issued, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.metrics.RecordLogin(metrics.LoginFailure)
		} else {
			h.metrics.RecordLogin(metrics.LoginError)
		}
		writeError(w, r, err)
		return
	}
	h.metrics.RecordLogin(metrics.LoginSuccess)
	respond.JSON(w, http.StatusOK, loginResponse{
		Envelope:      respond.OK(),
		LoginResponse: dto.LoginResponse{Token: issued.Token, UserID: issued.UserID},
	})
}
