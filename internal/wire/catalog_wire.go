package wire

import (
	"storefront/internal/adaptor"
	"storefront/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

func wireCatalog(r chi.Router, productHandler *adaptor.ProductHandler, categoryHandler *adaptor.CategoryHandler) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", productHandler.ListProducts)
		r.Get("/{id}", productHandler.GetProduct)

		r.With(middleware.ReadOnlyOrAuthenticated).Route("/{id}/comments", func(r chi.Router) {
			r.Get("/", productHandler.ListComments)
			r.Post("/", productHandler.CreateComment)
		})
	})

	// every category endpoint requires a signed-in caller
	r.With(middleware.RequireAuth).Route("/categories", func(r chi.Router) {
		r.Get("/", categoryHandler.List)
		r.Post("/", categoryHandler.Create)
		r.Get("/{id}", categoryHandler.Get)
		r.Put("/{id}", categoryHandler.Update)
		r.Delete("/{id}", categoryHandler.Delete)
	})
}
