package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/storefront-api/internal/auth"
	"github.com/hongminglow/storefront-api/internal/metrics"
	"github.com/hongminglow/storefront-api/internal/middleware"
	"github.com/hongminglow/storefront-api/internal/models"
)

type harness struct {
	t       *testing.T
	store   *memStore
	tokens  *auth.TokenManager
	reg     *prometheus.Registry
	handler http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := newMemStore()
	tokens, err := auth.NewTokenManager("router-test-secret", "storefront-api", time.Hour)
	require.NoError(t, err)

	limiter := middleware.NewLoginLimiter(100, time.Minute)
	t.Cleanup(limiter.Stop)

	reg := prometheus.NewRegistry()
	handler := NewRouter(Deps{
		Logger:      slog.New(slog.NewJSONHandler(io.Discard, nil)),
		CORSOrigins: []string{"*"},
		StartedAt:   time.Now(),
		Verifier:    tokens,
		Auth:        auth.NewService(store, store, tokens, time.Hour),
		Limiter:     limiter,
		Users:       store,
		Categories:  store,
		Products:    store,
		Orders:      store,
		Health:      store,
		Metrics:     metrics.NewCollector(reg),
		Gatherer:    reg,
	})
	return &harness{t: t, store: store, tokens: tokens, reg: reg, handler: handler}
}

func (h *harness) bearer(userID int64, role models.Role) string {
	h.t.Helper()
	tok, err := h.tokens.Generate(userID, role)
	require.NoError(h.t, err)
	return tok
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success        bool              `json:"success"`
	Errors         []string          `json:"errors"`
	Docs           []json.RawMessage `json:"docs"`
	LastInsertedID int64             `json:"lastInsertedId"`
	Affected       int64             `json:"affected"`
	Token          string            `json:"token"`
	UserID         int64             `json:"userId"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func (h *harness) denials(reason string) float64 {
	h.t.Helper()
	families, err := h.reg.Gather()
	require.NoError(h.t, err)
	for _, mf := range families {
		if mf.GetName() != "storefront_guard_denials_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "reason" && lp.GetValue() == reason {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestRouter_AuthenticationIsRequired(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api/category", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, []string{"Unauthorized"}, env.Errors)

	rec = h.do(http.MethodGet, "/api/category", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, []string{"Unauthorized"}, decodeEnvelope(t, rec).Errors)

	rec = h.do(http.MethodGet, "/api/category", h.bearer(3, models.RoleUser), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), h.denials("UNAUTHORIZED"))
}

func TestRouter_StaleBearerOnPublicRoutes(t *testing.T) {
	h := newHarness(t)
	h.store.products[7] = models.Product{ID: 7, UserID: 3, Title: "Lamp", Quantity: 2}

	rotated, err := auth.NewTokenManager("previous-secret", "storefront-api", time.Hour)
	require.NoError(t, err)
	stale, err := rotated.Generate(3, models.RoleUser)
	require.NoError(t, err)

	rec := h.do(http.MethodPost, "/api/auth/register", stale, map[string]any{
		"firstName":       "Ada",
		"lastName":        "Lovelace",
		"email":           "ada@example.com",
		"password":        "Passw0rd!",
		"confirmPassword": "Passw0rd!",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = h.do(http.MethodPost, "/api/auth/login", stale, map[string]any{"email": "ada@example.com", "password": "Passw0rd!"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	fresh := decodeEnvelope(t, rec).Token
	assert.NotEmpty(t, fresh)

	rec = h.do(http.MethodGet, "/api/product", stale, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(http.MethodGet, "/api/product/7", stale, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodGet, "/api/category", stale, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = h.do(http.MethodGet, "/api/category", fresh, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RoleRequirements(t *testing.T) {
	h := newHarness(t)
	h.store.users[1] = models.User{ID: 1, Email: "admin@example.com", Role: models.RoleAdmin}
	h.store.users[3] = models.User{ID: 3, Email: "user@example.com", Role: models.RoleUser}

	rec := h.do(http.MethodGet, "/api/users", h.bearer(3, models.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, []string{"Forbidden resource"}, decodeEnvelope(t, rec).Errors)

	rec = h.do(http.MethodGet, "/api/users", h.bearer(1, models.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeEnvelope(t, rec).Docs, 2)

	// ADMIN does not imply USER.
	rec = h.do(http.MethodGet, "/api/order", h.bearer(1, models.RoleAdmin), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodGet, "/api/users/me", h.bearer(3, models.RoleUser), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	require.Len(t, env.Docs, 1)
	assert.Contains(t, string(env.Docs[0]), `"email":"user@example.com"`)
	assert.NotContains(t, string(env.Docs[0]), "password")
}

func TestRouter_ProductReadsArePublic(t *testing.T) {
	h := newHarness(t)
	h.store.products[7] = models.Product{ID: 7, UserID: 3, Title: "Lamp", Quantity: 2}

	rec := h.do(http.MethodGet, "/api/product", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeEnvelope(t, rec).Docs, 1)

	rec = h.do(http.MethodGet, "/api/product/7", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeEnvelope(t, rec).Docs, 1)

	rec = h.do(http.MethodPost, "/api/product", "", map[string]any{"userId": 3, "categoryId": 1, "title": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_ListQueryErrors(t *testing.T) {
	h := newHarness(t)

	cases := map[string]string{
		"bad operator":      "/api/product?filter=price~10",
		"unknown filter":    "/api/product?filter=secret=1",
		"unknown sort":      "/api/product?sort=-password",
		"bad page":          "/api/product?page=0",
		"owner not allowed": "/api/order?filter=userId=3",
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			rec := h.do(http.MethodGet, path, h.bearer(4, models.RoleUser), nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			env := decodeEnvelope(t, rec)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Errors)
		})
	}
}

func TestRouter_OwnershipIsEnforced(t *testing.T) {
	h := newHarness(t)
	h.store.categories[1] = models.Category{ID: 1, UserID: 3, Title: "Books"}
	owner := h.bearer(3, models.RoleUser)
	intruder := h.bearer(4, models.RoleUser)

	// The intruder names themselves in the body: the guard passes, the row check does not.
	existing := h.do(http.MethodPatch, "/api/category/1", intruder, map[string]any{"userId": 4, "title": "Mine"})
	missing := h.do(http.MethodPatch, "/api/category/999", intruder, map[string]any{"userId": 4, "title": "Mine"})
	assert.Equal(t, http.StatusForbidden, existing.Code)
	assert.Equal(t, http.StatusForbidden, missing.Code)
	assert.Equal(t, existing.Body.String(), missing.Body.String(), "existence must not leak")
	assert.Equal(t, []string{"Forbidden Resource"}, decodeEnvelope(t, existing).Errors)

	rec := h.do(http.MethodPatch, "/api/category/1", intruder, map[string]any{"userId": 3, "title": "Mine"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, float64(1), h.denials("OWNERSHIP_MISMATCH"))

	rec = h.do(http.MethodPatch, "/api/category/1", intruder, map[string]any{"title": "Mine"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"The given resource doesn't have key: 'userId'"}, decodeEnvelope(t, rec).Errors)

	rec = h.do(http.MethodPatch, "/api/category/1", intruder, "[1,2]")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodDelete, "/api/category/1", intruder, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Books", h.store.categories[1].Title)

	rec = h.do(http.MethodPatch, "/api/category/1", owner, map[string]any{"userId": 3, "title": "Novels"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(1), decodeEnvelope(t, rec).Affected)
	assert.Equal(t, "Novels", h.store.categories[1].Title)

	rec = h.do(http.MethodPatch, "/api/category/1", owner, `{"userId":3.0,"title":"Essays"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Essays", h.store.categories[1].Title)

	rec = h.do(http.MethodPatch, "/api/category/1", owner, `{"userId":3.5,"title":"Essays"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodDelete, "/api/category/1", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, h.store.categories)
}

func TestRouter_CreateRequiresCallerAsOwner(t *testing.T) {
	h := newHarness(t)
	tok := h.bearer(3, models.RoleUser)

	rec := h.do(http.MethodPost, "/api/category", tok, map[string]any{"userId": 4, "title": "Games"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodPost, "/api/category", tok, map[string]any{"userId": 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/api/category", tok, `{"userId":"3","title":"Games"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/api/category", tok, `{"userId":3.0,"title":"Puzzles"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = h.do(http.MethodPost, "/api/category", tok, map[string]any{"userId": 3, "title": "Games"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, int64(3), h.store.categories[env.LastInsertedID].UserID)
}

func TestRouter_Orders(t *testing.T) {
	h := newHarness(t)
	h.store.products[10] = models.Product{ID: 10, UserID: 1, Title: "Lamp", Quantity: 2}
	h.store.nextID = 100
	tok := h.bearer(3, models.RoleUser)

	t.Run("unknown product", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/api/order", tok, map[string]any{"userId": 3, "productId": 99, "quantity": 1})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, []string{"Invalid ProductId!"}, decodeEnvelope(t, rec).Errors)
	})

	t.Run("insufficient stock", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/api/order", tok, map[string]any{"userId": 3, "productId": 10, "quantity": 3})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, []string{"Insufficient product quantity!"}, decodeEnvelope(t, rec).Errors)
	})

	var created int64
	t.Run("create", func(t *testing.T) {
		rec := h.do(http.MethodPost, "/api/order", tok, map[string]any{"userId": 3, "productId": 10, "quantity": 2})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		created = decodeEnvelope(t, rec).LastInsertedID
		assert.Equal(t, int64(2), h.store.products[10].Quantity, "stock is checked, not reserved")
	})

	h.store.orders[500] = models.Order{ID: 500, UserID: 4, ProductID: 10, Quantity: 1}

	t.Run("list is scoped to the caller and embeds products", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/api/order?filter=quantity>=1", tok, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		env := decodeEnvelope(t, rec)
		require.Len(t, env.Docs, 1)

		var doc struct {
			ID      int64           `json:"id"`
			UserID  int64           `json:"userId"`
			Product *models.Product `json:"product"`
		}
		require.NoError(t, json.Unmarshal(env.Docs[0], &doc))
		assert.Equal(t, created, doc.ID)
		assert.Equal(t, int64(3), doc.UserID)
		require.NotNil(t, doc.Product)
		assert.Equal(t, "Lamp", doc.Product.Title)

		owner, ok := h.store.lastOrders.Filter.Get("userId")
		require.True(t, ok)
		assert.Equal(t, "3", owner.Value)
		_, kept := h.store.lastOrders.Filter.Get("quantity")
		assert.True(t, kept)
	})

	t.Run("someone else's order is invisible", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/api/order/500", tok, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("update re-checks stock", func(t *testing.T) {
		path := "/api/order/" + strconv.FormatInt(created, 10)
		rec := h.do(http.MethodPatch, path, tok, map[string]any{"userId": 3, "quantity": 5})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = h.do(http.MethodPatch, path, tok, map[string]any{"userId": 3, "paid": true})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, h.store.orders[created].Paid)
	})

	t.Run("deleted product embeds as null", func(t *testing.T) {
		rec := h.do(http.MethodDelete, "/api/product/10", h.bearer(1, models.RoleUser), nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, int64(1), decodeEnvelope(t, rec).Affected)

		rec = h.do(http.MethodGet, "/api/order/"+strconv.FormatInt(created, 10), tok, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		require.Len(t, env.Docs, 1)
		assert.Contains(t, string(env.Docs[0]), `"product":null`)
	})
}

func TestRouter_RegisterAndLogin(t *testing.T) {
	h := newHarness(t)
	registration := map[string]any{
		"firstName":       "Ada",
		"lastName":        "Lovelace",
		"email":           "ada@example.com",
		"password":        "Passw0rd!",
		"confirmPassword": "Passw0rd!",
	}

	rec := h.do(http.MethodPost, "/api/auth/register", "", registration)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, decodeEnvelope(t, rec).Success)

	rec = h.do(http.MethodPost, "/api/auth/register", "", registration)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"User already exists!"}, decodeEnvelope(t, rec).Errors)

	mismatch := map[string]any{}
	for k, v := range registration {
		mismatch[k] = v
	}
	mismatch["email"] = "grace@example.com"
	mismatch["confirmPassword"] = "Other0ne!"
	rec = h.do(http.MethodPost, "/api/auth/register", "", mismatch)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"Passwords doesn't match!"}, decodeEnvelope(t, rec).Errors)

	wrong := h.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "ada@example.com", "password": "Wr0ngPass!"})
	unknown := h.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "nobody@example.com", "password": "Passw0rd!"})
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
	assert.Equal(t, []string{"Email or password not valid"}, decodeEnvelope(t, wrong).Errors)

	rec = h.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "ada@example.com", "password": "Passw0rd!"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	env := decodeEnvelope(t, rec)
	require.NotEmpty(t, env.Token)
	assert.NotContains(t, rec.Body.String(), `"id"`)

	tok, err := h.store.FindToken(t.Context(), env.UserID, models.TokenBearer)
	require.NoError(t, err)
	assert.Equal(t, env.Token, tok.Value)

	rec = h.do(http.MethodGet, "/api/users/me", env.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"USER"`)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"ok"`)

	h.store.pingErr = errors.New("connection refused")
	rec = h.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)

	h.do(http.MethodGet, "/api/category", "", nil)
	rec = h.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_http_requests_total{")
	assert.Contains(t, rec.Body.String(), `status="401"`)
	assert.Contains(t, rec.Body.String(), "storefront_guard_denials_total")
}

func TestRouter_PreflightAndRequestID(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/order", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}
