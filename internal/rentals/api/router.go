package api

import (
	"fmt"
	"net/http"
	"rental-location/internal/auth"
	"rental-location/internal/logger"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps SSE working through the recorder
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// RequestLogger logs method, path, status and duration of every request
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.LogAPI(r.Method, r.URL.Path, strconv.Itoa(rec.status), time.Since(start).String())
		})
	}
}

// RouteRegistrar adds routes below /api
type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

// NewRouter mounts the API and any extra registrars under /api behind optional authentication
func NewRouter(h *Handler, extra []RouteRegistrar, verifiers ...auth.Verifier) chi.Router {
	r := chi.NewRouter()
	r.Use(CapturePeer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(h.Logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(verifiers...))
		r.Route("/api", func(r chi.Router) {
			h.RegisterRoutes(r)
			for _, reg := range extra {
				reg.RegisterRoutes(r)
			}
		})
	})
	return r
}
