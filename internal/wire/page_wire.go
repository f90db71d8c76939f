package wire

import (
	"storefront/internal/adaptor"
	"storefront/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

const loginPath = "/accounts/login/"

func wireAccounts(r chi.Router, h *adaptor.AccountHandler, limiter *middleware.RateLimiter) {
	r.Route("/accounts", func(r chi.Router) {
		r.Get("/register/", h.RegisterForm)
		r.With(limiter.Handler).Post("/register/", h.Register)
		r.Get("/register/done/", h.RegisterDone)
		r.Get("/register/activate/{sign}/", h.Activate)

		r.Get("/login/", h.LoginForm)
		r.With(limiter.Handler).Post("/login/", h.Login)
		r.Post("/logout/", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireLogin(loginPath))

			r.Get("/profile/", h.Profile)
			r.Get("/profile/change/", h.ProfileChangeForm)
			r.Post("/profile/change/", h.ProfileChange)
			r.Get("/password/change/", h.PasswordChangeForm)
			r.Post("/password/change/", h.PasswordChange)
			r.Get("/profile/delete/", h.ProfileDeleteForm)
			r.Post("/profile/delete/", h.ProfileDelete)

			r.Get("/profile/add/", h.ProductAddForm)
			r.Post("/profile/add/", h.ProductAdd)
			r.Get("/profile/{productID}/", h.ProductDetail)
			r.Get("/profile/change/{productID}/", h.ProductChangeForm)
			r.Post("/profile/change/{productID}/", h.ProductChange)
			r.Get("/profile/delete/{productID}/", h.ProductDeleteForm)
			r.Post("/profile/delete/{productID}/", h.ProductDelete)
		})
	})
}

func wirePages(r chi.Router, h *adaptor.PageHandler, limiter *middleware.RateLimiter) {
	r.Get("/", h.Index)
	r.Get("/pages/{page}/", h.StaticPage)
	r.Get("/{categoryID}/", h.ByCategory)
	r.Get("/{categoryID}/{productID}/", h.Detail)
	r.With(limiter.Handler).Post("/{categoryID}/{productID}/", h.PostComment)
}
