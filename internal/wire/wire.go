package wire

import (
	"fmt"
	"net/http"

	"storefront/internal/adaptor"
	"storefront/internal/data/repository"
	"storefront/internal/usecase"
	"storefront/internal/web"
	"storefront/pkg/middleware"
	"storefront/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App holds the wired dependencies
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
	Limiter *middleware.RateLimiter
}

// Wiring builds services, handlers and routes
func Wiring(repo *repository.Repository, config *utils.Config, deps usecase.Deps, logger *zap.Logger) (*App, error) {
	renderer, err := web.NewRenderer(logger)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	service := usecase.NewService(repo, config, deps, logger)
	handler := adaptor.NewHandler(service, renderer, config, logger)
	limiter := middleware.NewRateLimiter(config.RateLimit, logger.With(zap.String("middleware", "ratelimit")))

	router := setupRouter(handler, service, limiter, config, deps, logger)

	return &App{
		Router:  router,
		Service: service,
		Limiter: limiter,
	}, nil
}

func setupRouter(
	handler *adaptor.Handler,
	service *usecase.Service,
	limiter *middleware.RateLimiter,
	config *utils.Config,
	deps usecase.Deps,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Recover(logger, http.HandlerFunc(handler.Page.ServerError)))
	r.Use(middleware.Logger(logger))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CORS())
		r.Use(middleware.APIAuth(service.Auth, logger))
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			utils.ResponseNotFound(w, "Not found")
		})

		wireAuth(r, handler.Auth, limiter)
		wireCatalog(r, handler.Product, handler.Category)
		wireUser(r, handler.User, logger)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.WebSession(service.Auth, config.Session.CookieName, logger))

		wireAccounts(r, handler.Account, limiter)
		wirePages(r, handler.Page, limiter)
	})

	r.NotFound(handler.Page.NotFound)

	return r
}
