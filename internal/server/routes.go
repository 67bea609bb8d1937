package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"dealvoy/pkg/httpx/reply"
)

func (s Server) RegisterRoutes(r chi.Router) {
	r.Post("/scrape", handler(s.postScrape))
	r.Post("/price/ingest", handler(s.postPriceIngest))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/webhook", func(r chi.Router) {
			r.Post("/export", handler(s.postWebhookExport))
			r.Get("/logs", handler(s.getWebhookLogs))
		})
	})
}

func handler(f func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			reply.Error(r.Context(), w, err)
		}
	}
}
