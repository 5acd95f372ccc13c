package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/repository"

	custommiddleware "github.com/mmeshcher/storefront/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware тестового бэкенда под префиксом /api.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(custommiddleware.RateLimit(h.rateLimit, int(h.rateLimit)))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.With(h.authMiddleware.Middleware).Get("/renew-token", h.RenewToken)
		})

		auth := h.authMiddleware.Middleware
		newResource(repository.KindServices, h.catalog.Services, h.logger).mount(r, auth)
		newResource(repository.KindProducts, h.catalog.Products, h.logger).mount(r, auth)
		newResource(repository.KindWorkshops, h.catalog.Workshops, h.logger).mount(r, auth)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, model.Failure[struct{}](http.StatusText(http.StatusNotFound)))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, model.Failure[struct{}](http.StatusText(http.StatusMethodNotAllowed)))
	})

	return r
}
