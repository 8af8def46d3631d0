package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all market hours routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/market-hours", func(r chi.Router) {
		r.Get("/status", h.HandleGetStatus)
		r.Get("/status/{exchange}", func(w http.ResponseWriter, r *http.Request) {
			exchange := chi.URLParam(r, "exchange")
			h.HandleGetStatusByExchange(w, r, exchange)
		})
		r.Get("/open-markets", h.HandleGetOpenMarkets)
		r.Get("/holidays", h.HandleGetHolidays)
		r.Get("/validate-trading-window", h.HandleValidateTradingWindow)
		r.Get("/exchanges", h.HandleGetExchanges)
		r.Get("/schedule/{exchange}", func(w http.ResponseWriter, r *http.Request) {
			exchange := chi.URLParam(r, "exchange")
			h.HandleGetSchedule(w, r, exchange)
		})

		if h.closures == nil {
			return
		}
		r.Route("/closures", func(r chi.Router) {
			r.Get("/", h.HandleListClosures)
			r.Post("/", h.HandleCreateClosure)
			r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
				h.HandleDeleteClosure(w, r, chi.URLParam(r, "id"))
			})
		})
	})
}
