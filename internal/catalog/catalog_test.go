package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ralt/appget/internal/httputil"
	"github.com/ralt/appget/internal/models"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(srv.URL+"/v1/", WithHTTPClient(srv.Client()), WithRetry(httputil.RetryConfig{
		MaxRetries:    1,
		InitialDelay:  time.Millisecond,
		MaxDelay:      time.Millisecond,
		BackoffFactor: 1,
	}))
}

func TestGetLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/packages/vlc/latest":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"vlc","name":"VLC media player","version":"3.0.20","manifestPath":"https://example.com/vlc.yaml"}`))
		case "/v1/packages/broken/latest":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv)

	info, err := c.GetLatest(context.Background(), "vlc")
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if info == nil || info.ID != "vlc" || info.Version != "3.0.20" || info.ManifestPath == "" {
		t.Errorf("Unexpected package info: %+v", info)
	}

	info, err = c.GetLatest(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Expected nil error for 404, got %v", err)
	}
	if info != nil {
		t.Errorf("Expected nil result for 404, got %+v", info)
	}

	_, err = c.GetLatest(context.Background(), "broken")
	if !models.IsType(err, models.ErrRemoteFailure) {
		t.Fatalf("Expected RemoteFailure, got %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected status 500 in chain, got %v", err)
	}
}

func TestSearchTrimsTerm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/packages" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if q := r.URL.Query().Get("q"); q != "media player" {
			t.Errorf("Expected trimmed query, got %q", q)
		}
		w.Write([]byte(`[{"id":"vlc","name":"VLC"},{"id":"mpc-hc","name":"MPC-HC"}]`))
	}))
	defer srv.Close()

	results, err := newTestClient(srv).Search(context.Background(), "  media player ")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 || results[1].ID != "mpc-hc" {
		t.Errorf("Unexpected results: %+v", results)
	}
}

func TestSearchInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Search(context.Background(), "x")
	if !models.IsType(err, models.ErrRemoteFailure) {
		t.Errorf("Expected RemoteFailure, got %v", err)
	}
}

func TestRetryExhaustionIsRemoteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).GetLatest(context.Background(), "vlc")
	if !models.IsType(err, models.ErrRemoteFailure) {
		t.Errorf("Expected RemoteFailure, got %v", err)
	}
}
