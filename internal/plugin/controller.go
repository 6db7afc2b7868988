// Package plugin implements the background half of the design-tool plugin:
// the message switch that receives user intents from the UI bridge and runs
// the token / fetch / summarize pipeline, converting every failure into a
// single human-readable message.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/figsum/figsum/internal/auth/broker"
	"github.com/figsum/figsum/internal/config"
	"github.com/figsum/figsum/internal/db"
	"github.com/figsum/figsum/internal/upstream"
	"github.com/figsum/figsum/internal/upstream/anthropic"
	"github.com/figsum/figsum/internal/upstream/figma"
)

// Fetcher retrieves the normalized comment list for a file.
type Fetcher interface {
	FetchComments(ctx context.Context, fileKey, accessToken string) ([]figma.Comment, error)
}

// Summarizer produces a prose summary from a non-empty comment list.
type Summarizer interface {
	Summarize(ctx context.Context, comments []figma.Comment) (string, error)
}

// SummarizerFactory builds a summarizer bound to the user's stored API key.
// The key can change between actions, so a fresh client is built per run.
type SummarizerFactory func(apiKey string) Summarizer

// Controller wires the store, broker, fetcher and summarizer behind the UI
// bridge. One summarize flow runs at a time.
type Controller struct {
	store         *db.Store
	broker        *broker.Broker
	bridge        Bridge
	fetcher       Fetcher
	newSummarizer SummarizerFactory
	fileKey       string

	mu   sync.Mutex
	busy bool
}

// NewController assembles the pipeline for one open file. The controller
// registers itself as the broker's notifier so OAUTH_REQUIRED messages reach
// the UI.
func NewController(store *db.Store, cfg *config.Config, bridge Bridge, fileKey string) *Controller {
	c := &Controller{
		store:   store,
		bridge:  bridge,
		fileKey: fileKey,
		fetcher: figma.NewClient(cfg.Figma.APIBaseURL),
		newSummarizer: func(apiKey string) Summarizer {
			return anthropic.NewClient(apiKey, cfg.Anthropic.BaseURL, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
		},
	}
	c.broker = broker.New(store, cfg.Figma, c)
	return c
}

// NewControllerWithDeps injects fetcher and summarizer, used by tests.
func NewControllerWithDeps(store *db.Store, cfg config.Figma, bridge Bridge, fileKey string, fetcher Fetcher, factory SummarizerFactory) *Controller {
	c := &Controller{
		store:         store,
		bridge:        bridge,
		fileKey:       fileKey,
		fetcher:       fetcher,
		newSummarizer: factory,
	}
	c.broker = broker.New(store, cfg, c)
	return c
}

// Broker exposes the token broker for callback delivery.
func (c *Controller) Broker() *broker.Broker {
	return c.broker
}

// AuthorizationRequired implements broker.Notifier by forwarding the consent
// URL to the UI.
func (c *Controller) AuthorizationRequired(authURL string) {
	c.bridge.Post(Message{Type: MsgOAuthRequired, AuthURL: authURL})
}

// HandleOAuthCallback delivers a completed redirect to the pending flow.
func (c *Controller) HandleOAuthCallback(ev broker.CallbackEvent) {
	c.broker.Resolve(ev)
}

// HandleMessage dispatches one inbound UI message. Errors never escape; each
// action reports back over the bridge.
func (c *Controller) HandleMessage(ctx context.Context, msg Message) {
	log.Printf("[Plugin] Received message: %s", msg.Type)

	switch msg.Type {
	case MsgSaveConfig, MsgSetAPIKey:
		c.saveConfig(msg.APIKey)
	case MsgGetConfig:
		c.loadConfig()
	case MsgSaveOAuthToken:
		c.saveOAuthToken(msg.Token)
	case MsgSummarize, MsgSummarizeComments:
		c.summarize(ctx)
	default:
		log.Printf("[Plugin] Ignoring unknown message type: %s", msg.Type)
	}
}

func (c *Controller) saveConfig(apiKey string) {
	if apiKey == "" {
		c.bridge.Post(Message{Type: MsgSummaryError, Message: "Please enter an API key"})
		return
	}
	if err := c.store.SetAPIKey(apiKey); err != nil {
		log.Printf("[Plugin] Failed to save config: %v", err)
		c.bridge.Post(Message{Type: MsgSummaryError, Message: "Failed to save API key"})
		return
	}
	c.bridge.Post(Message{Type: MsgConfigSaved})
}

func (c *Controller) loadConfig() {
	apiKey, err := c.store.APIKey()
	if err != nil {
		log.Printf("[Plugin] Failed to load config: %v", err)
		return
	}
	c.bridge.Post(Message{Type: MsgConfigLoaded, Config: &UIConfig{APIKey: apiKey}})
}

func (c *Controller) saveOAuthToken(token string) {
	if token == "" {
		c.bridge.Post(Message{Type: MsgSummaryError, Message: "Received an empty OAuth token"})
		return
	}
	if err := c.store.SetAccessToken(token); err != nil {
		log.Printf("[Plugin] Failed to save OAuth token: %v", err)
		c.bridge.Post(Message{Type: MsgSummaryError, Message: "Failed to save OAuth token"})
	}
}

// summarize runs the whole pipeline: config gate, token, fetch, summarize.
func (c *Controller) summarize(ctx context.Context) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		c.bridge.Post(Message{Type: MsgSummaryError, Message: "A summary is already being generated"})
		return
	}
	c.busy = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	apiKey, err := c.store.APIKey()
	if err != nil {
		c.bridge.Post(Message{Type: MsgSummaryError, Message: errorMessage(err)})
		return
	}
	if apiKey == "" {
		c.bridge.Post(Message{
			Type:    MsgConfigRequired,
			Message: "Please set your Anthropic API key in the plugin settings",
		})
		return
	}

	token, err := c.broker.EnsureAccessToken(ctx)
	if err != nil {
		c.bridge.Post(Message{Type: MsgSummaryError, Message: errorMessage(err)})
		return
	}

	comments, err := c.fetcher.FetchComments(ctx, c.fileKey, token)
	if errors.Is(err, upstream.ErrUnauthorized) {
		// Token revoked or expired upstream; drop it so the next run
		// re-enters authorization.
		if invErr := c.broker.Invalidate(); invErr != nil {
			log.Printf("[Plugin] Failed to invalidate token: %v", invErr)
		}
		c.bridge.Post(Message{Type: MsgSummaryError, Message: errorMessage(err)})
		return
	}
	if err != nil {
		c.bridge.Post(Message{Type: MsgSummaryError, Message: errorMessage(err)})
		return
	}
	if len(comments) == 0 {
		c.bridge.Post(Message{Type: MsgSummaryError, Message: "No comments found in the current file"})
		return
	}

	summary, err := c.newSummarizer(apiKey).Summarize(ctx, comments)
	if err != nil {
		c.bridge.Post(Message{Type: MsgSummaryError, Message: errorMessage(err)})
		return
	}

	c.bridge.Post(Message{Type: MsgSummaryResult, Summary: summary})
}

// errorMessage converts any pipeline error into the single human-readable
// string shown in the UI.
func errorMessage(err error) string {
	var upstreamErr *upstream.Error

	switch {
	case errors.Is(err, broker.ErrAuthorizationPending):
		return "Authorization is already in progress. Complete it in the opened window first."
	case errors.Is(err, broker.ErrAuthorizationCancelled):
		return "Authorization was cancelled."
	case errors.Is(err, broker.ErrStateMismatch):
		return "Authorization failed a security check. Please try again."
	case errors.Is(err, upstream.ErrUnauthorized):
		return "Your Figma session has expired. Run summarize again to re-authorize."
	case errors.Is(err, upstream.ErrNotFound):
		return "The current file could not be found."
	case errors.Is(err, upstream.ErrTimeout):
		return "The request timed out. Please try again."
	case errors.Is(err, anthropic.ErrNotConfigured):
		return "Please set your Anthropic API key in the plugin settings"
	case errors.Is(err, anthropic.ErrEmptyInput):
		return "No comments found in the current file"
	case errors.As(err, &upstreamErr):
		return fmt.Sprintf("The service returned an error (HTTP %d). Please try again later.", upstreamErr.Status)
	default:
		return "Failed to generate summary. Please try again."
	}
}
