package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all historical data routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/historical", func(r chi.Router) {
		r.Route("/prices", func(r chi.Router) {
			r.Get("/daily/{isin}", func(w http.ResponseWriter, r *http.Request) {
				isin := chi.URLParam(r, "isin")
				h.HandleGetDailyPrices(w, r, isin)
			})
		})

		r.Get("/adv", h.HandleGetADV)
	})
}
