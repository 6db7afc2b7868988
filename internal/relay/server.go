// Package relay implements the out-of-sandbox HTTP service that holds the
// OAuth client secret: it receives the authorization redirect, performs the
// code-for-token exchange, hands the token back to the opener window, and
// optionally forwards summarization requests using a server-held key.
package relay

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	figmaauth "github.com/figsum/figsum/internal/auth/figma"
	"github.com/figsum/figsum/internal/config"
	"github.com/figsum/figsum/internal/logging"
	"github.com/figsum/figsum/internal/upstream/anthropic"
)

// Server carries the relay's long-lived collaborators.
type Server struct {
	cfg        *config.Config
	exchanger  *figmaauth.Exchanger
	summarizer *anthropic.Client
	started    time.Time
}

// NewServer builds a relay from the process configuration.
func NewServer(cfg *config.Config) *Server {
	return &Server{
		cfg:       cfg,
		exchanger: figmaauth.NewExchanger(cfg.Figma),
		summarizer: anthropic.NewClient(
			cfg.Anthropic.APIKey,
			cfg.Anthropic.BaseURL,
			cfg.Anthropic.Model,
			cfg.Anthropic.MaxTokens,
		),
		started: time.Now(),
	}
}

// Router assembles the relay's routes and middleware. Only the design tool's
// origin and the relay's own origin may call these endpoints.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(logging.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.Get("/oauth/callback", s.handleOAuthCallback)
	r.Post("/summarize", s.handleSummarize)
	r.Get("/health", s.handleHealth)

	return r
}

// Uptime reports how long the relay has been running.
func (s *Server) Uptime() time.Duration {
	return time.Since(s.started)
}
