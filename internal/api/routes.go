package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routes builds the router: health unauthenticated at the root, everything
// else under /api.
func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/taxonomy", func(r chi.Router) {
			r.Get("/options", s.handleTaxonomyOptions)
			r.Get("/codes/{code}", s.handleTaxonomyCode)
			r.Get("/codes/{code}/display", s.handleTaxonomyDisplay)
		})

		r.Route("/segments", func(r chi.Router) {
			r.Post("/preview", s.handlePreview)
			r.Post("/validate", s.handleValidate)
			r.Post("/estimate", s.handleEstimate)
			r.Post("/export", s.handleExport)

			r.Post("/", s.handleCreateSegment)
			r.Get("/", s.handleListSegments)
			r.Get("/{id}", s.handleGetSegment)
			r.Put("/{id}", s.handleUpdateSegment)
			r.Delete("/{id}", s.handleDeleteSegment)
		})

		r.Post("/attribution/upload", s.handleAttributionUpload)
		r.Post("/classify", s.handleClassify)
		r.Post("/classify/cache/flush", s.handleCacheFlush)
		r.Post("/feeds/discover", s.handleFeedDiscover)
		r.Post("/dataset/merge", s.handleDatasetMerge)
		r.Get("/dataset/stats", s.handleDatasetStats)
	})

	return r
}
