package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ecofinds/ecofinds-core/api/controllers"
	"github.com/ecofinds/ecofinds-core/api/middleware"
	"github.com/ecofinds/ecofinds-core/internal/app"
	"github.com/ecofinds/ecofinds-core/internal/routeguard"
	"github.com/ecofinds/ecofinds-core/pkg/config"
	"github.com/ecofinds/ecofinds-core/pkg/logger"
	"github.com/ecofinds/ecofinds-core/pkg/metrics"
)

type clientRegistry interface {
	Get(ctx context.Context, clientID string) (*app.App, error)
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Deps carries what the router wires into its handlers. Routes and
// RateLimiter, Metrics and Gatherer are optional.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Registry clientRegistry
	Routes   *routeguard.Table
	// Ready lists the dependencies pinged by /health/ready.
	Ready       map[string]controllers.Pinger
	RateLimiter rateLimiter
	Metrics     *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg, logg := deps.Config, deps.Logger
	table := deps.Routes
	if table == nil {
		table = routeguard.Default()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.Metrics),
	)
	if len(cfg.App.CORSOrigins) > 0 {
		r.Use(middleware.CORS(cfg.App.CORSOrigins))
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Ready))
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Client(deps.Registry, middleware.ClientCookie{
			Name:   cfg.Clients.CookieName,
			MaxAge: 30 * 24 * time.Hour,
			Secure: cfg.App.IsProd(),
		}, logg))

		r.Route("/session", func(r chi.Router) {
			r.Get("/", controllers.SessionState(logg))
			r.With(middleware.AuthRateLimit(loginPolicy, deps.RateLimiter, logg)).Post("/login", controllers.SessionLogin(logg))
			r.Patch("/draft", controllers.SessionDraft(logg))
			r.With(middleware.AuthRateLimit(registerPolicy, deps.RateLimiter, logg)).Post("/register", controllers.SessionRegister(logg))
			r.Post("/logout", controllers.SessionLogout(logg))
			r.Patch("/identity", controllers.SessionIdentity(logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(logg))
			r.Delete("/", controllers.CartClear(logg))
			r.Post("/items", controllers.CartAdd(logg))
			r.Patch("/items/{productID}", controllers.CartUpdate(logg))
			r.Delete("/items/{productID}", controllers.CartRemove(logg))
			r.Post("/checkout", controllers.CartCheckout(logg))
		})

		r.Route("/search", func(r chi.Router) {
			r.Get("/", controllers.SearchFetch(logg))
			r.Put("/", controllers.SearchSetQuery(logg))
			r.Delete("/", controllers.SearchClear(logg))
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/products", controllers.CatalogProducts(logg))
			r.Get("/products/{id}", controllers.CatalogProduct(logg))
			r.Get("/categories", controllers.CatalogCategories(logg))
		})

		r.Route("/seller/products", func(r chi.Router) {
			r.Get("/", controllers.SellerProducts(logg))
			r.Post("/", controllers.SellerCreate(logg))
			r.Put("/{id}", controllers.SellerUpdate(logg))
			r.Delete("/{id}", controllers.SellerDelete(logg))
		})

		r.Get("/orders", controllers.OrdersHistory(logg))
		r.Get("/navigate", controllers.Navigate(table, logg))
		r.Get("/navigation", controllers.Navigation(table, logg))
	})

	return r
}
