// Package api exposes the roster services over HTTP.
//
// Callers identify themselves with the X-Worker-ID and X-Role headers. The
// headers are trusted as given; authentication is expected in front of the
// server.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-roster/internal/config"
)

const (
	defaultAddr              = ":8080"
	defaultRequestsPerSecond = 10
	defaultBurst             = 20
)

// NewRouter wires every route and the middleware stack
func NewRouter(h *Handler, cfg config.ServerConfig, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	rps, burst := cfg.RequestsPerSecond, cfg.Burst
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	if burst <= 0 {
		burst = defaultBurst
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", headerWorkerID, headerRole},
		MaxAge:         300,
	}))
	r.Use(NewClientRateLimiter(rps, burst).Middleware)

	r.Route("/api", func(r chi.Router) {
		r.Route("/rosters", func(r chi.Router) {
			r.Get("/", h.ViewRoster)
			r.Post("/generate", h.GenerateRoster)
			r.Post("/approve", h.ApproveRoster)
		})

		r.Route("/leave", func(r chi.Router) {
			r.Post("/", h.ApplyLeave)
			r.Get("/pending", h.ListPendingLeave)
			r.Post("/{id}/approve", h.ApproveLeave)
			r.Post("/{id}/reject", h.RejectLeave)
		})

		r.Route("/replacements", func(r chi.Router) {
			r.Get("/", h.FindReplacements)
			r.Post("/", h.ReplaceShift)
		})

		r.Route("/workers/{id}", func(r chi.Router) {
			r.Get("/schedule", h.ViewSchedule)
			r.Get("/leave", h.LeaveHistory)
		})
	})

	return r
}

// NewServer returns an http.Server for the configured address
func NewServer(handler http.Handler, cfg config.ServerConfig) *http.Server {
	addr := cfg.Addr
	if addr == "" {
		addr = defaultAddr
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// requestLogger logs each request at Info once the response is written
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info("Handled request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}
