package wire

import (
	"storefront/internal/adaptor"
	"storefront/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

func wireAuth(r chi.Router, authHandler *adaptor.AuthHandler, limiter *middleware.RateLimiter) {
	// JWT pair
	r.With(limiter.Handler).Post("/token/", authHandler.ObtainToken)
	r.Post("/token/refresh/", authHandler.RefreshToken)
	r.Post("/token/verify/", authHandler.VerifyToken)

	// opaque tokens
	r.With(limiter.Handler).Post("/auth/token/login/", authHandler.TokenLogin)
	r.With(middleware.RequireAuth).Post("/auth/token/logout/", authHandler.TokenLogout)
}
