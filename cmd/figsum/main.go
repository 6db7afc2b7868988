// figsum - local pipeline driver
// Drives the plugin controller from a terminal: saves the API key, runs the
// summarize flow against a real file, and walks the OAuth flow interactively
// when no token is cached. Useful for exercising the pipeline without the
// design tool hosting it.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/figsum/figsum/internal/auth/broker"
	"github.com/figsum/figsum/internal/browser"
	"github.com/figsum/figsum/internal/config"
	"github.com/figsum/figsum/internal/db"
	"github.com/figsum/figsum/internal/plugin"
	"github.com/joho/godotenv"
)

func main() {
	fileKey := flag.String("file", "", "file key whose comments to summarize")
	apiKey := flag.String("key", "", "Anthropic API key to save before running")
	token := flag.String("token", "", "Figma access token to cache before running")
	dbPath := flag.String("db", "figsum.db", "credential store path")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall flow timeout")
	flag.Parse()

	_ = godotenv.Load()

	if *fileKey == "" {
		fmt.Fprintln(os.Stderr, "usage: figsum -file <fileKey> [-key <anthropic key>] [-token <access token>]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store, err := db.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open credential store: %v", err)
	}

	bridge := &consoleBridge{done: make(chan struct{}, 1)}
	ctrl := plugin.NewController(store, cfg, bridge, *fileKey)
	bridge.ctrl = ctrl

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *apiKey != "" {
		ctrl.HandleMessage(ctx, plugin.Message{Type: plugin.MsgSetAPIKey, APIKey: *apiKey})
	}
	if *token != "" {
		ctrl.HandleMessage(ctx, plugin.Message{Type: plugin.MsgSaveOAuthToken, Token: *token})
	}

	ctrl.HandleMessage(ctx, plugin.Message{Type: plugin.MsgSummarize})

	select {
	case <-bridge.done:
	case <-ctx.Done():
		log.Fatalf("Timed out waiting for summary")
	}
}

// consoleBridge plays the plugin UI: it prints outbound messages and walks
// the authorization handoff on the terminal.
type consoleBridge struct {
	ctrl *plugin.Controller
	done chan struct{}
}

func (b *consoleBridge) Post(msg plugin.Message) {
	switch msg.Type {
	case plugin.MsgOAuthRequired:
		b.handleAuthorization(msg.AuthURL)
	case plugin.MsgSummaryResult:
		fmt.Println("\n--- Summary ---")
		fmt.Println(msg.Summary)
		b.finish()
	case plugin.MsgSummaryError:
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg.Message)
		b.finish()
	case plugin.MsgConfigRequired:
		fmt.Fprintf(os.Stderr, "%s (pass -key to save one)\n", msg.Message)
		b.finish()
	case plugin.MsgConfigSaved:
		fmt.Println("API key saved")
	case plugin.MsgConfigLoaded:
		// Not used by the CLI flow.
	}
}

// handleAuthorization opens the consent page, then reads the access token the
// relay's callback page displays and feeds it back to the pending flow. The
// state parameter is lifted from the authorization URL so the callback event
// correlates correctly.
func (b *consoleBridge) handleAuthorization(authURL string) {
	fmt.Println("Authorization required; opening browser...")
	fmt.Printf("If the browser does not open, visit:\n  %s\n", authURL)
	if err := browser.OpenURL(authURL); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}

	state := ""
	if u, err := url.Parse(authURL); err == nil {
		state = u.Query().Get("state")
	}

	go func() {
		fmt.Print("Paste the access token from the relay page (empty to cancel): ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		token := strings.TrimSpace(line)
		if err != nil || token == "" {
			b.ctrl.Broker().Cancel()
			return
		}
		b.ctrl.HandleOAuthCallback(broker.CallbackEvent{
			Code:        "manual",
			State:       state,
			AccessToken: token,
		})
	}()
}

func (b *consoleBridge) finish() {
	select {
	case b.done <- struct{}{}:
	default:
	}
}
