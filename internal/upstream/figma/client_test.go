package figma

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/figsum/figsum/internal/upstream"
)

func TestFetchComments_NormalizesPayload(t *testing.T) {
	var gotAuth string
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"comments":[
			{"message":"hi","user":{"handle":"ada"},"created_at":"2024-01-01T00:00:00Z","resolved":true},
			{"message":"later","user":{"handle":"bob"},"created_at":"2024-01-02T12:00:00Z","resolved":false}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	comments, err := client.FetchComments(context.Background(), "file-123", "tok-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if gotAuth != "Bearer tok-1" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if gotPath != "/v1/files/file-123/comments" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if len(comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(comments))
	}

	first := comments[0]
	if first.Text != "hi" || first.Author != "ada" || !first.Resolved {
		t.Fatalf("unexpected first comment: %+v", first)
	}
	if first.CreatedAt != 1704067200000 {
		t.Fatalf("expected epoch millis 1704067200000, got %d", first.CreatedAt)
	}
	// API order is preserved; nothing re-sorts.
	if comments[1].Author != "bob" {
		t.Fatalf("expected order preserved, got %+v", comments[1])
	}
}

func TestFetchComments_EmptyListIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"comments":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	comments, err := client.FetchComments(context.Background(), "file-123", "tok-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(comments) != 0 {
		t.Fatalf("expected empty list, got %d", len(comments))
	}
}

func TestFetchComments_UnauthorizedMapsToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.FetchComments(context.Background(), "file-123", "dead-token")
	if !errors.Is(err, upstream.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestFetchComments_NotFoundMapsToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.FetchComments(context.Background(), "missing", "tok-1")
	if !errors.Is(err, upstream.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFetchComments_OtherStatusCarriesDiagnostics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"err":"boom"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.FetchComments(context.Background(), "file-123", "tok-1")
	var upstreamErr *upstream.Error
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if upstreamErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", upstreamErr.Status)
	}
	if upstreamErr.Body != `{"err":"boom"}` {
		t.Fatalf("expected body preserved, got %q", upstreamErr.Body)
	}
}

func TestNormalize_UnparseableTimestampYieldsZero(t *testing.T) {
	comments := Normalize([]RawComment{{Message: "x", CreatedAt: "not-a-date"}})
	if comments[0].CreatedAt != 0 {
		t.Fatalf("expected zero epoch for bad timestamp, got %d", comments[0].CreatedAt)
	}
}
