// Package figma fetches review comments from the Figma REST API and
// normalizes them into the shape the summarizer consumes.
package figma

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/figsum/figsum/internal/upstream"
	"github.com/figsum/figsum/internal/util"
)

// RawComment is one entry of the platform's comments payload.
type RawComment struct {
	Message string `json:"message"`
	User    struct {
		Handle string `json:"handle"`
	} `json:"user"`
	CreatedAt string `json:"created_at"`
	Resolved  bool   `json:"resolved"`
}

// Comment is the normalized form. CreatedAt is epoch milliseconds. The
// collection keeps the API's order; nothing re-sorts it.
type Comment struct {
	Text      string `json:"text"`
	Author    string `json:"author"`
	CreatedAt int64  `json:"createdAt"`
	Resolved  bool   `json:"resolved"`
}

// Client talks to the comments endpoint of one Figma deployment.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a comments client for baseURL.
func NewClient(baseURL string) *Client {
	return NewClientWithHTTP(baseURL, upstream.NewClient(upstream.DefaultTimeout))
}

// NewClientWithHTTP allows injecting the HTTP client, used by tests.
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// FetchComments retrieves and normalizes the comment list of a file. An
// empty list is a valid result; callers decide whether that is an error.
func (c *Client) FetchComments(ctx context.Context, fileKey, accessToken string) ([]Comment, error) {
	endpoint := fmt.Sprintf("%s/v1/files/%s/comments", c.baseURL, url.PathEscape(fileKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build comments request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, upstream.ClassifyNetworkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read comments response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, upstream.ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: file %s", upstream.ErrNotFound, fileKey)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		log.Printf("[Figma] Comments fetch failed: %d %s", resp.StatusCode, util.TruncateBytes(body))
		return nil, &upstream.Error{Status: resp.StatusCode, Body: string(body)}
	}

	var payload struct {
		Comments []RawComment `json:"comments"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse comments response: %w", err)
	}

	log.Printf("[Figma] Fetched %d comments for file %s", len(payload.Comments), fileKey)
	return Normalize(payload.Comments), nil
}

// Normalize converts raw platform comments into the uniform shape. Entries
// are never mutated afterwards.
func Normalize(raw []RawComment) []Comment {
	comments := make([]Comment, 0, len(raw))
	for _, rc := range raw {
		var createdAt int64
		if ts, err := time.Parse(time.RFC3339, rc.CreatedAt); err == nil {
			createdAt = ts.UnixMilli()
		}
		comments = append(comments, Comment{
			Text:      rc.Message,
			Author:    rc.User.Handle,
			CreatedAt: createdAt,
			Resolved:  rc.Resolved,
		})
	}
	return comments
}
