// internal/adapters/in/http/router.go
package httpin

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"storefront/internal/adapters/in/http/handler"
	"storefront/internal/adapters/in/http/middleware"
	usecase "storefront/internal/application/usecase"
	"storefront/internal/infra/logging"
)

// RouterDeps collects the usecases and auth pieces injected from main.go.
type RouterDeps struct {
	CartUC     *usecase.CartUsecase
	WishlistUC *usecase.WishlistUsecase
	OrderUC    *usecase.OrderUsecase
	ProductUC  *usecase.ProductUsecase

	Verifier  middleware.TokenVerifier
	Freshness middleware.FreshnessChecker
	// SessionMaxAge bounds how old a sign-in may be for sensitive routes.
	SessionMaxAge time.Duration

	// Metrics serves /metrics when set.
	Metrics http.Handler
	Logger  *zap.Logger
}

// NewRouter sets up HTTP routing for all storefront endpoints.
func NewRouter(deps RouterDeps) http.Handler {
	logger := logging.OrNop(deps.Logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recover(logger))

	// Health check (always on)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	userAuth := &middleware.UserAuthMiddleware{Verifier: deps.Verifier, Logger: logger}
	fresh := middleware.RequireFreshSession(deps.Freshness, deps.SessionMaxAge)

	r.Route("/api", func(api chi.Router) {
		api.Use(userAuth.Handler)

		// Usecases that are nil are not mounted.
		if deps.CartUC != nil {
			api.Route("/cart", handler.NewCartHandler(deps.CartUC, logger).Routes)
		}
		if deps.WishlistUC != nil {
			api.Route("/wishlist", handler.NewWishlistHandler(deps.WishlistUC, logger).Routes)
		}
		if deps.OrderUC != nil {
			h := handler.NewOrderHandler(deps.OrderUC, logger)
			api.Route("/orders", func(or chi.Router) {
				h.Routes(or)
				or.With(fresh).Post("/", h.Place)
				or.With(fresh).Patch("/{id}", h.UpdateStatus)
			})
		}
		if deps.ProductUC != nil {
			h := handler.NewProductHandler(deps.ProductUC, logger)
			api.Route("/products", func(pr chi.Router) {
				pr.Get("/{id}", h.Get)
				pr.With(fresh).Post("/", h.Create)
				pr.With(fresh).Put("/{id}", h.Update)
				pr.With(fresh).Delete("/{id}", h.Deactivate)
			})
		}
	})

	return r
}
