// Package router sets up all HTTP routes and middleware chains for the
// aichat server. It separates the JSON API from the server-rendered pages
// so each group gets its own middleware stack.
package router

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"aichat/internal/handlers"
	"aichat/internal/middleware"
)

// Deps holds the handler groups and shared middleware the router wires up.
// Static may be nil, in which case /static/ is not served. An empty
// AdminToken disables the operator endpoints.
type Deps struct {
	Chat       *handlers.Chat
	Session    *handlers.Session
	Pages      *handlers.Pages
	Providers  *handlers.Providers
	Limiter    *middleware.RateLimiter
	Static     fs.FS
	AdminToken string
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecureHeaders)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CORS)

		r.Route("/chat", func(r chi.Router) {
			if d.Limiter != nil {
				r.With(d.Limiter.Middleware).Post("/", d.Chat.Send)
			} else {
				r.Post("/", d.Chat.Send)
			}
			r.Get("/health", d.Chat.Health)
			r.Get("/{sessionID}", d.Chat.History)
			r.Delete("/{sessionID}", d.Chat.Delete)
			r.Get("/{sessionID}/export", d.Chat.Export)
		})

		r.Post("/render", handlers.RenderMarkdown)

		r.Get("/session", d.Session.Current)
		r.Post("/session", d.Session.Renew)

		r.Get("/providers", d.Providers.Status)
		r.With(middleware.RequireOperator(d.AdminToken)).Put("/providers/active", d.Providers.SetActive)
	})

	r.Get("/chat/{sessionID}", d.Pages.Transcript)

	if d.Static != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(d.Static))))
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		if strings.HasPrefix(req.URL.Path, "/api/") {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		d.Pages.NotFound(w, req)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
