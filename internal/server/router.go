package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hongminglow/storefront-api/internal/guard"
	"github.com/hongminglow/storefront-api/internal/http/handlers"
	"github.com/hongminglow/storefront-api/internal/metrics"
	"github.com/hongminglow/storefront-api/internal/middleware"
	"github.com/hongminglow/storefront-api/internal/models"
	"github.com/hongminglow/storefront-api/internal/storage"
)

// Deps is everything the router needs. All fields are required.
type Deps struct {
	Logger      *slog.Logger
	CORSOrigins []string
	StartedAt   time.Time

	Verifier middleware.TokenVerifier
	Auth     handlers.AuthService
	Limiter  *middleware.LoginLimiter

	Users      storage.UserStore
	Categories storage.CategoryStore
	Products   storage.ProductStore
	Orders     storage.OrderStore
	Health     handlers.Pinger

	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
}

var (
	userOnly     = guard.Route{RequiredRoles: []models.Role{models.RoleUser}}
	adminOnly    = guard.Route{RequiredRoles: []models.Role{models.RoleAdmin}}
	anyAccount   = guard.Route{RequiredRoles: []models.Role{models.RoleUser, models.RoleAdmin}}
	ownerChecked = guard.Route{OwnershipEnforced: true}
	noOverride   = guard.Route{}
)

// NewRouter builds the HTTP handler. Middleware runs outermost first:
// request id, access log, metrics, panic recovery, CORS, then token verification.
// Each protected route then evaluates the guard chain for its own metadata.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Logging(d.Logger),
		d.Metrics.Middleware,
		middleware.Recovery,
		middleware.CORS(d.CORSOrigins),
		middleware.Authenticate(d.Verifier),
	)

	chain := guard.Default()
	onDeny := func(w http.ResponseWriter, req *http.Request, denial *guard.Denial) {
		d.Metrics.RecordGuardDenial(string(denial.Reason))
		handlers.WriteDenial(w, req, denial)
	}
	// protect merges controller and handler metadata the way route decorators stack.
	protect := func(controller, handler guard.Route) func(http.Handler) http.Handler {
		return guard.Middleware(chain, guard.Merge(controller, handler), onDeny)
	}

	health := handlers.NewHealthHandler(d.StartedAt, d.Health)
	r.Get("/health", health.Check)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(d.Gatherer))

	authH := handlers.NewAuthHandler(d.Auth, d.Metrics)
	categories := handlers.NewCategoryHandler(d.Categories)
	products := handlers.NewProductHandler(d.Products)
	orders := handlers.NewOrderHandler(d.Orders, d.Products)
	users := handlers.NewUserHandler(d.Users)

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(ar chi.Router) {
			ar.Use(d.Limiter.Middleware)
			ar.Post("/register", authH.Register)
			ar.Post("/login", authH.Login)
		})

		api.Route("/category", func(cr chi.Router) {
			cr.With(protect(userOnly, noOverride)).Get("/", categories.List)
			cr.With(protect(userOnly, noOverride)).Get("/{id}", categories.Get)
			cr.With(protect(userOnly, noOverride)).Post("/", categories.Create)
			cr.With(protect(userOnly, ownerChecked)).Patch("/{id}", categories.Update)
			cr.With(protect(userOnly, ownerChecked)).Delete("/{id}", categories.Delete)
		})

		api.Route("/product", func(pr chi.Router) {
			pr.Get("/", products.List)
			pr.Get("/{id}", products.Get)
			pr.With(protect(noOverride, userOnly)).Post("/", products.Create)
			pr.With(protect(userOnly, ownerChecked)).Patch("/{id}", products.Update)
			pr.With(protect(userOnly, ownerChecked)).Delete("/{id}", products.Delete)
		})

		api.Route("/order", func(odr chi.Router) {
			odr.With(protect(userOnly, noOverride)).Get("/", orders.List)
			odr.With(protect(userOnly, noOverride)).Get("/{id}", orders.Get)
			odr.With(protect(userOnly, noOverride)).Post("/", orders.Create)
			odr.With(protect(userOnly, ownerChecked)).Patch("/{id}", orders.Update)
			odr.With(protect(userOnly, ownerChecked)).Delete("/{id}", orders.Delete)
		})

		api.Route("/users", func(ur chi.Router) {
			ur.With(protect(noOverride, adminOnly)).Get("/", users.List)
			ur.With(protect(noOverride, anyAccount)).Get("/me", users.Me)
		})
	})

	return r
}
