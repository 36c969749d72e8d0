package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/franz/imagevault/internal/util"
)

// NewRouter wires the API routes.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLog)

	r.Route("/api", func(r chi.Router) {
		r.Get("/index", h.GetIndex)
		r.Route("/images", func(r chi.Router) {
			r.Post("/", h.UploadImage)
			r.Get("/", h.ListImages)
			r.Route("/{stem}", func(r chi.Router) {
				r.Post("/versions", h.RecordVersion)
				r.Get("/recombine", h.Recombine)
				r.Get("/history", h.History)
				r.Delete("/", h.DeleteImage)
			})
		})
	})
	return r
}

// requestLog logs each request at debug level with its duration.
func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		util.DebugLog("%s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}
