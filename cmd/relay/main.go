package main

import (
	"log"
	"net/http"

	"github.com/figsum/figsum/internal/config"
	"github.com/figsum/figsum/internal/relay"
	"github.com/figsum/figsum/internal/version"
	"github.com/joho/godotenv"
)

func main() {
	// Optional .env for local development; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateRelay(); err != nil {
		log.Fatalf("Missing required environment variables: %v", err)
	}

	server := relay.NewServer(cfg)

	log.Printf("🚀 figsum relay %s starting on http://%s", version.Version, cfg.Addr())
	log.Printf("🔑 OAuth callback: http://%s/oauth/callback", cfg.Addr())
	log.Printf("📝 Summarize API:  http://%s/summarize", cfg.Addr())

	if err := http.ListenAndServe(cfg.Addr(), server.Router()); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
