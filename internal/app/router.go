package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karobar-erp/karobar-erp/internal/accounts"
	"github.com/karobar-erp/karobar-erp/internal/auth"
	"github.com/karobar-erp/karobar-erp/internal/billing"
	"github.com/karobar-erp/karobar-erp/internal/masterdata"
	"github.com/karobar-erp/karobar-erp/internal/masterdata/lookups"
	"github.com/karobar-erp/karobar-erp/internal/observability"
	"github.com/karobar-erp/karobar-erp/internal/platform/httpx"
	"github.com/karobar-erp/karobar-erp/internal/purchasing"
	"github.com/karobar-erp/karobar-erp/internal/stock"
	"github.com/karobar-erp/karobar-erp/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AuthMiddleware    auth.Middleware
	AuthHandler       *auth.Handler
	BillingHandler    *billing.Handler
	PurchasingHandler *purchasing.Handler
	StockHandler      *stock.Handler
	AccountsHandler   *accounts.Handler
	UsersHandler      *users.Handler
	MasterDataHandler *masterdata.Handler
	LookupsHandler    *lookups.Handler
	Metrics           *observability.Metrics
	Pool              *pgxpool.Pool
}

// NewRouter assembles the HTTP routing tree. Everything except login and
// the health probe sits behind bearer authentication.
func NewRouter(p RouterParams) chi.Router {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{Logger: p.Logger, Config: p.Config, Metrics: p.Metrics}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if p.Pool != nil {
			if err := p.Pool.Ping(req.Context()); err != nil {
				httpx.Fail(w, http.StatusServiceUnavailable, "database unreachable")
				return
			}
		}
		httpx.OK(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", p.Metrics.Handler())
	}

	r.Route("/auth", p.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(p.AuthMiddleware.Authenticate)

		r.Route("/bills", p.BillingHandler.MountRoutes)
		r.Route("/pos", p.PurchasingHandler.MountRoutes)
		r.Route("/stock", p.StockHandler.MountRoutes)
		r.Route("/accounts", p.AccountsHandler.MountRoutes)
		r.Route("/users", p.UsersHandler.MountRoutes)
		r.Route("/customers", p.MasterDataHandler.MountCustomerRoutes)
		r.Route("/products", p.MasterDataHandler.MountProductRoutes)
		r.Route("/suppliers", p.MasterDataHandler.MountSupplierRoutes)
		p.LookupsHandler.MountRoutes(r)
	})

	return r
}
