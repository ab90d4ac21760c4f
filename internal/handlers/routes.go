package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(h.Auth.WithIdentity)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondOK(w, map[string]string{"status": "ok"})
	})

	// WebSocket (lifecycle announcements)
	if h.Hub != nil {
		r.Get("/ws", h.Hub.ServeWs)
	}

	// Session
	r.Post("/api/auth/login", h.handleLogin)
	r.Post("/api/auth/logout", h.handleLogout)
	r.Get("/api/auth/me", h.handleMe)

	// Votes (read access is open; the portal fronts this service)
	r.Get("/api/votes", h.handleListVotes)
	r.Get("/api/votes/{id}", h.handleGetVote)
	r.Get("/api/votes/{id}/results", h.handleGetResults)
	r.Get("/api/votes/{id}/share", h.handleShareLink)
	r.Get("/api/votes/{id}/qr", h.handleShareQR)

	// Submission stays open so its precondition ordering is observable:
	// state checks fire before the authentication check
	r.Post("/api/votes/{id}/responses", h.handleSubmitResponse)

	// Member endpoints (require an authenticated identity)
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireIdentity)
		r.Post("/api/votes", h.handleCreateVote)
		r.Put("/api/votes/{id}", h.handleUpdateVote)
		r.Post("/api/votes/{id}/transition", h.handleTransition)
		r.Delete("/api/votes/{id}", h.handleDeleteVote)
		r.Get("/api/votes/{id}/responses/me", h.handleMyResponse)
	})

	// Admin endpoints
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireAdmin)
		r.Get("/api/admin/stats", h.handleGetStats)
		r.Get("/api/admin/settings", h.handleGetSettings)
		r.Put("/api/admin/settings", h.handleUpdateSettings)
		r.Post("/api/admin/settings", h.handleUpdateSettings)
	})

	return r
}
