// Package config builds the single configuration object shared by the relay
// and the plugin-side pipeline. Values come from an optional YAML file,
// overridden by environment variables; secrets are environment-only.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Default Figma OAuth application values. The client secret is never
// defaulted; it must be supplied via FIGMA_CLIENT_SECRET.
const (
	DefaultClientID    = "TIGvBleCCeIkJMV8jRzAIl"
	DefaultRedirectURI = "http://localhost:3000/oauth/callback"
	DefaultAuthURL     = "https://www.figma.com/oauth"
	DefaultTokenURL    = "https://www.figma.com/api/oauth/token"
	DefaultAPIBaseURL  = "https://api.figma.com"
	DefaultScope       = "file_read"
)

// Anthropic defaults match the summarization endpoint contract.
const (
	DefaultAnthropicBaseURL = "https://api.anthropic.com"
	DefaultModel            = "claude-3-5-sonnet-20241022"
	DefaultMaxTokens        = 300
)

// Figma holds the OAuth application settings for the comments platform.
type Figma struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"-"`
	RedirectURI  string `yaml:"redirect_uri"`
	AuthURL      string `yaml:"auth_url"`
	TokenURL     string `yaml:"token_url"`
	APIBaseURL   string `yaml:"api_base_url"`
	Scope        string `yaml:"scope"`
}

// Anthropic holds the summarization provider settings.
type Anthropic struct {
	APIKey    string `yaml:"-"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

// Config is constructed once at process start and passed into each component.
type Config struct {
	Host           string    `yaml:"host"`
	Port           string    `yaml:"port"`
	DBPath         string    `yaml:"db_path"`
	AllowedOrigins []string  `yaml:"allowed_origins"`
	Figma          Figma     `yaml:"figma"`
	Anthropic      Anthropic `yaml:"anthropic"`
}

// searchPaths are tried in order when FIGSUM_CONFIG is not set.
var searchPaths = []string{
	"config/relay.yaml",
	"./relay.yaml",
	"/etc/figsum/relay.yaml",
}

// Load assembles the configuration: defaults, then the first YAML file found,
// then environment overrides.
func Load() (*Config, error) {
	cfg := defaults()

	path := os.Getenv("FIGSUM_CONFIG")
	candidates := searchPaths
	if path != "" {
		candidates = []string{path}
	}
	for _, p := range candidates {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", p, err)
		}
		log.Printf("[Config] Loaded %s", p)
		break
	}

	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Host:   "127.0.0.1",
		Port:   "3000",
		DBPath: "figsum.db",
		AllowedOrigins: []string{
			"https://www.figma.com",
			"http://localhost:3000",
		},
		Figma: Figma{
			ClientID:    DefaultClientID,
			RedirectURI: DefaultRedirectURI,
			AuthURL:     DefaultAuthURL,
			TokenURL:    DefaultTokenURL,
			APIBaseURL:  DefaultAPIBaseURL,
			Scope:       DefaultScope,
		},
		Anthropic: Anthropic{
			BaseURL:   DefaultAnthropicBaseURL,
			Model:     DefaultModel,
			MaxTokens: DefaultMaxTokens,
		},
	}
}

func applyEnv(cfg *Config) {
	setIfPresent(&cfg.Host, "HOST")
	setIfPresent(&cfg.Port, "PORT")
	setIfPresent(&cfg.DBPath, "FIGSUM_DB")
	setIfPresent(&cfg.Figma.ClientID, "FIGMA_CLIENT_ID")
	setIfPresent(&cfg.Figma.ClientSecret, "FIGMA_CLIENT_SECRET")
	setIfPresent(&cfg.Figma.RedirectURI, "FIGMA_REDIRECT_URI")
	setIfPresent(&cfg.Figma.APIBaseURL, "FIGMA_API_BASE_URL")
	setIfPresent(&cfg.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	setIfPresent(&cfg.Anthropic.BaseURL, "ANTHROPIC_BASE_URL")
	setIfPresent(&cfg.Anthropic.Model, "ANTHROPIC_MODEL")
	if v := os.Getenv("ANTHROPIC_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Anthropic.MaxTokens = n
		}
	}
}

func setIfPresent(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// ValidateRelay checks the settings the relay cannot run without.
func (c *Config) ValidateRelay() error {
	if c.Figma.ClientSecret == "" {
		return fmt.Errorf("FIGMA_CLIENT_SECRET is required")
	}
	if c.Anthropic.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	return nil
}

// Addr returns the listen address for the relay server.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}
