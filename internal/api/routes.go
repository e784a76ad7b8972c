package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/casedeck/internal/pkg/logger"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	// CORS - the upload form is served from wherever the frontend lives,
	// no cookies involved, so any origin is fine.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/healthz", h.HealthCheck)
			r.Get("/get-options", h.GetOptions)

			r.Post("/process", h.Process)
			r.Post("/analyze", h.Analyze)
			r.Post("/export", h.Export)
		})

		// Deck generation waits on screenshots and LLM calls, so it gets a
		// longer leash than the tabular endpoints.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(5 * time.Minute))

			r.Post("/report", h.Report)
			r.Post("/create-pptx", h.CreatePPTX)
		})
	})

	return r
}

// accessLogger writes one structured line per request.
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).Round(time.Millisecond).String(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
