/*
Package server implements the application's network transport layer.
It wires the planner, chat registry and history stores behind an echo router
and configures the HTTP server timeouts.
*/
package server

import (
	"fmt"
	"net/http"
	"time"

	"DietPlanner/internal/chat"
	"DietPlanner/internal/database"
	"DietPlanner/internal/diet"
	"DietPlanner/internal/foods"
	"DietPlanner/internal/history"
	"DietPlanner/internal/telemetry"
	"DietPlanner/internal/utility"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/gorilla/sessions"
)

// Options are the transport settings.
type Options struct {
	Port int

	// SessionSecret signs the chat session cookie.
	SessionSecret string

	// SecureCookies marks cookies Secure; off in development.
	SecureCookies bool

	// AllowedOrigins may call the API cross-origin with credentials and open
	// chat sockets. Same-origin pages never need to be listed.
	AllowedOrigins []string

	// Names reported by /health.
	HistoryBackend  string
	TextGenProvider string
}

// Deps are the domain services behind the handlers. DB and Metrics may be nil.
type Deps struct {
	Table         *foods.Table
	Planner       *diet.Planner
	DailyHistory  history.Store
	WeeklyHistory history.Store
	Chats         *chat.Registry
	DB            database.Service
	Metrics       *telemetry.Metrics
}

// Server defines the configuration and dependencies for the HTTP service.
type Server struct {
	opts Options
	Deps

	cookies   *sessions.CookieStore
	hub       *utility.Hub
	upgrader  *websocket.Upgrader
	validate  *validator.Validate
	startTime time.Time
}

// New builds a Server without binding a port.
func New(opts Options, deps Deps) *Server {
	cookies := sessions.NewCookieStore([]byte(opts.SessionSecret))
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}

	return &Server{
		opts:      opts,
		Deps:      deps,
		cookies:   cookies,
		hub:       utility.NewHub(),
		upgrader:  utility.NewUpgrader(opts.AllowedOrigins),
		validate:  validator.New(),
		startTime: time.Now(),
	}
}

// NewServer returns a configured *http.Server for s.
func (s *Server) NewServer() *http.Server {
	return &http.Server{
		Addr:        fmt.Sprintf(":%d", s.opts.Port),
		Handler:     s.RegisterRoutes(),
		IdleTimeout: time.Minute,
		ReadTimeout: 10 * time.Second,
		// A weekly plan makes 28 sequential text generation calls.
		WriteTimeout: 5 * time.Minute,
	}
}

// Hub exposes the open chat sockets so they can be closed on shutdown.
func (s *Server) Hub() *utility.Hub { return s.hub }
