/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. zerolog:    Structured request logging
  4. CORS:       Cross-origin requests for the app frontend

ROUTE GROUPS:
  /api/achievements        Catalog listing
  /api/users/{id}/*        Per-user achievements, wallet, activity facts

SECURITY NOTE:
  No authentication middleware. The engine trusts the surrounding app
  to authenticate users and pass a stable user id in the path.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Catalog routes
		r.Get("/achievements", h.ListAchievements)

		// Per-user routes
		r.Route("/users/{id}", func(r chi.Router) {
			r.Route("/achievements", func(r chi.Router) {
				r.Get("/", h.ListUserAchievements)
				r.Get("/{achID}", h.GetAchievementStatus)
				r.Post("/{achID}/claim", h.ClaimAchievement)
			})

			r.Route("/wallet", func(r chi.Router) {
				r.Get("/", h.GetBalance)
				r.Get("/transactions", h.GetTransactions)
				r.Post("/redeem", h.Redeem)
			})

			r.Route("/activity", func(r chi.Router) {
				r.Post("/diaries", h.RecordDiary)
				r.Post("/photos", h.RecordPhoto)
				r.Post("/todos", h.RecordTodoDone)
			})
		})
	})

	return r
}

// requestLogger logs one line per request with method, path, status,
// duration, and the chi request id.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
