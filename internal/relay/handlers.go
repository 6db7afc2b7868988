package relay

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/figsum/figsum/internal/logging"
	"github.com/figsum/figsum/internal/upstream"
	"github.com/figsum/figsum/internal/upstream/anthropic"
	"github.com/figsum/figsum/internal/upstream/figma"
)

// The callback pages hand the result to the window that opened the consent
// popup and close themselves. html/template escapes every interpolated value
// for the script context, so provider-controlled strings cannot inject code.
var callbackSuccessPage = template.Must(template.New("oauth-callback").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Authorization Complete</title></head>
<body>
<p>Authorization complete. You can close this window.</p>
<script>
	try {
		window.opener.postMessage({
			type: 'oauth-callback',
			code: {{.Code}},
			state: {{.State}},
			access_token: {{.AccessToken}}
		}, '*');
	} finally {
		window.close();
	}
</script>
</body>
</html>`))

var callbackErrorPage = template.Must(template.New("oauth-error").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Authorization Failed</title></head>
<body>
<p>Authorization failed. You can close this window.</p>
<script>
	try {
		window.opener.postMessage({
			type: 'oauth-error',
			error: {{.Error}}
		}, '*');
	} finally {
		window.close();
	}
</script>
</body>
</html>`))

type callbackData struct {
	Code        string
	State       string
	AccessToken string
}

type callbackError struct {
	Error string
}

// handleOAuthCallback receives the provider redirect and exchanges the code
// for an access token. A missing code short-circuits with 400 before any
// token endpoint traffic.
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	reqID := logging.GetRequestID(r.Context())
	q := r.URL.Query()
	code := q.Get("code")
	state := q.Get("state")
	codeVerifier := q.Get("code_verifier")

	if code == "" {
		log.Printf("[OAuth] [%s] Callback missing authorization code", reqID)
		writeCallbackError(w, http.StatusBadRequest, "No authorization code received")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), upstream.DefaultTimeout)
	defer cancel()

	token, err := s.exchanger.Exchange(ctx, code, codeVerifier)
	if err != nil {
		log.Printf("[OAuth] [%s] Token exchange failed: %v", reqID, err)
		writeCallbackError(w, http.StatusInternalServerError, "Failed to exchange code for token")
		return
	}

	log.Printf("[OAuth] [%s] Token exchange successful", reqID)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := callbackSuccessPage.Execute(w, callbackData{Code: code, State: state, AccessToken: token}); err != nil {
		log.Printf("[OAuth] [%s] Failed to render callback page: %v", reqID, err)
	}
}

func writeCallbackError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := callbackErrorPage.Execute(w, callbackError{Error: message}); err != nil {
		log.Printf("[OAuth] Failed to render error page: %v", err)
	}
}

type summarizeRequest struct {
	Comments []figma.Comment `json:"comments"`
}

type summarizeResponse struct {
	Summary string `json:"summary,omitempty"`
	Error   string `json:"error,omitempty"`
}

// handleSummarize forwards comment text to the summarization provider using
// the server-held key.
func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	reqID := logging.GetRequestID(r.Context())

	var req summarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, summarizeResponse{Error: "invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), upstream.DefaultTimeout)
	defer cancel()

	summary, err := s.summarizer.Summarize(ctx, req.Comments)
	if err != nil {
		log.Printf("[Summarize] [%s] Failed: %v", reqID, err)
		writeJSON(w, summarizeStatus(err), summarizeResponse{Error: err.Error()})
		return
	}

	log.Printf("[Summarize] [%s] Generated summary for %d comments", reqID, len(req.Comments))
	writeJSON(w, http.StatusOK, summarizeResponse{Summary: summary})
}

func summarizeStatus(err error) int {
	var upstreamErr *upstream.Error
	switch {
	case errors.Is(err, anthropic.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, anthropic.ErrNotConfigured):
		return http.StatusInternalServerError
	case errors.Is(err, upstream.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &upstreamErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type healthResponse struct {
	Status    string  `json:"status"`
	Uptime    float64 `json:"uptime"`
	Timestamp string  `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Uptime:    s.Uptime().Seconds(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Relay] Failed to encode response: %v", err)
	}
}
