package wire

import (
	"storefront/internal/adaptor"
	"storefront/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wireUser configures the admin routes: authentication AND the admin role
func wireUser(r chi.Router, userHandler *adaptor.UserHandler, log *zap.Logger) {
	r.With(
		middleware.RequireAuth,
		middleware.Admin(log),
	).Route("/admin", func(r chi.Router) {
		r.Get("/users/", userHandler.ListUsers)                      // ?actstate=&page=&per_page=
		r.Post("/users/send-activation/", userHandler.SendActivation) // {"user_ids": [...]}
		r.Get("/comments/", userHandler.ListComments)                // ?product_id=&page=&per_page=
		r.Put("/comments/{id}", userHandler.ModerateComment)         // {"is_active": bool}
	})
}
