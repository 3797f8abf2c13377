package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/blendify/internal/models"
	"github.com/desertthunder/blendify/internal/shared"
	tu "github.com/desertthunder/blendify/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewAPIService("http://example.com/", customClient)

			if srv.baseURL != "http://example.com" {
				t.Errorf("expected trailing slash trimmed, got %s", srv.baseURL)
			}
			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Empty BaseURL", func(t *testing.T) {
			srv := NewAPIService("", nil)

			if srv.baseURL != DefaultAPIURL {
				t.Errorf("expected default baseURL, got %s", srv.baseURL)
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})
	})

	t.Run("Session", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			switch r.URL.Path {
			case "/session/abc123":
				json.NewEncoder(w).Encode(models.Session{ID: "abc123", User1Tracks: tu.Tracks("a")})
			case "/session/broken":
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"boom"}`))
			case "/session/garbage":
				w.Write([]byte(`{not json`))
			default:
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"error":"Session not found"}`))
			}
		}))
		defer server.Close()

		srv := NewAPIService(server.URL, nil)
		ctx := context.Background()

		t.Run("Found", func(t *testing.T) {
			s, err := srv.Session(ctx, "abc123")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if s.ID != "abc123" || len(s.User1Tracks) != 1 || s.HasPeer() {
				t.Errorf("unexpected session: %+v", s)
			}
		})

		t.Run("Not Found", func(t *testing.T) {
			_, err := srv.Session(ctx, "zzzzzz")
			if !errors.Is(err, shared.ErrSessionNotFound) {
				t.Errorf("expected ErrSessionNotFound, got %v", err)
			}
		})

		t.Run("Server Error", func(t *testing.T) {
			_, err := srv.Session(ctx, "broken")
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != 500 || apiErr.Message != "boom" {
				t.Errorf("expected 500 APIError with message, got %v", err)
			}
		})

		t.Run("Invalid JSON", func(t *testing.T) {
			if _, err := srv.Session(ctx, "garbage"); err == nil {
				t.Error("expected decode error")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("Request Error", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("network error"))}
			srv := NewAPIService("http://example.com", client)

			if _, err := srv.Get(context.Background(), "/test"); err == nil {
				t.Error("expected error for failed request")
			}
		})

		t.Run("Read Error", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(tu.NewFailingBodyResponse(), nil)}
			srv := NewAPIService("http://example.com", client)

			if _, err := srv.Get(context.Background(), "/test"); err == nil {
				t.Error("expected error when body read fails")
			}
		})

		t.Run("Invalid URL", func(t *testing.T) {
			srv := NewAPIService("://bad", nil)
			if _, err := srv.Get(context.Background(), "/test"); err == nil {
				t.Error("expected error for invalid URL")
			}
		})
	})

	t.Run("Health", func(t *testing.T) {
		ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/health" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Write([]byte(`{"status":"ok"}`))
		}))
		defer ok.Close()

		if err := NewAPIService(ok.URL, nil).Health(context.Background()); err != nil {
			t.Errorf("expected healthy server, got %v", err)
		}

		down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer down.Close()

		if err := NewAPIService(down.URL, nil).Health(context.Background()); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}
