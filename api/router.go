package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/4epuha1337/nextcharge/logger"
)

// NewRouter mounts the API under /api. When webDir is set its files are
// served at the root.
func NewRouter(h *Handler, webDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.log))

	r.Route("/api", func(r chi.Router) {
		r.Get("/nextcharge", h.NextCharge)
		r.Get("/subscriptions", h.ListSubscriptions)
		r.Post("/subscription", h.PostSubscription)
		r.Get("/subscription", h.GetSubscription)
		r.Put("/subscription", h.UpdateSubscription)
		r.Delete("/subscription", h.DeleteSubscription)
		r.Post("/subscription/charged", h.MarkCharged)
	})

	if webDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(webDir)))
	}
	return r
}

func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("http request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
