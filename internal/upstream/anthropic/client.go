// Package anthropic turns a normalized comment list into a prose summary by
// calling the Anthropic messages endpoint.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/figsum/figsum/internal/upstream"
	"github.com/figsum/figsum/internal/upstream/figma"
	"github.com/figsum/figsum/internal/util"
)

const apiVersion = "2023-06-01"

var (
	// ErrNotConfigured means no API key is present. It is checked before
	// any network call.
	ErrNotConfigured = errors.New("summarization API key is not configured")

	// ErrEmptyInput means there were zero comments to summarize.
	ErrEmptyInput = errors.New("no comments to summarize")
)

// Client calls the messages endpoint of one Anthropic deployment.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
}

// NewClient creates a summarizer with the given key and endpoint settings.
func NewClient(apiKey, baseURL, model string, maxTokens int) *Client {
	return NewClientWithHTTP(apiKey, baseURL, model, maxTokens, upstream.NewClient(upstream.DefaultTimeout))
}

// NewClientWithHTTP allows injecting the HTTP client, used by tests.
func NewClientWithHTTP(apiKey, baseURL, model string, maxTokens int, httpClient *http.Client) *Client {
	return &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		maxTokens:  maxTokens,
		httpClient: httpClient,
	}
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Summarize sends the comments to the model and returns the completion text
// verbatim. It fails fast on a missing key or an empty list, before any
// network traffic.
func (c *Client) Summarize(ctx context.Context, comments []figma.Comment) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}
	if len(comments) == 0 {
		return "", ErrEmptyInput
	}

	payload, err := json.Marshal(messageRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages:  []message{{Role: "user", Content: BuildPrompt(comments)}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build summary request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", upstream.ClassifyNetworkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read summary response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("[Anthropic] Summary request failed: %d %s", resp.StatusCode, util.TruncateBytes(body))
		return "", &upstream.Error{Status: resp.StatusCode, Body: string(body)}
	}

	var parsed messageResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse summary response: %w", err)
	}
	if len(parsed.Content) == 0 || parsed.Content[0].Text == "" {
		return "", fmt.Errorf("summary response carried no content")
	}

	log.Printf("[Anthropic] Generated summary for %d comments", len(comments))
	return parsed.Content[0].Text, nil
}

// BuildPrompt lists each comment as "author: text (RESOLVED)", one per line,
// under the summarization instruction.
func BuildPrompt(comments []figma.Comment) string {
	var b strings.Builder
	b.WriteString("Summarize these Figma comments and identify key discussion points and decisions made. ")
	b.WriteString("Also note the overall sentiment of the discussion:\n\n")
	for i, c := range comments {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(c.Author)
		b.WriteString(": ")
		b.WriteString(c.Text)
		if c.Resolved {
			b.WriteString(" (RESOLVED)")
		}
	}
	return b.String()
}
