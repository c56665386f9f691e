package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the API endpoints on a new router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/map", func(r chi.Router) {
			r.Post("/peptide", s.MapPeptideHandler)
			r.Post("/tag", s.MapTagHandler)
		})
		r.Get("/protein/{accession}", s.ProteinHandler)
		r.Get("/proteins", s.AccessionsHandler)
		r.Get("/index/stats", s.StatsHandler)
		r.Get("/modifications", s.ModificationsHandler)
	})
	return r
}
