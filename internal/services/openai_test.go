package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/madc0w/playlister/internal/shared"
)

func newOpenAITestService(t *testing.T, handler http.HandlerFunc) *OpenAIService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewOpenAIService(
		shared.OpenAIConfig{APIKey: "sk-test", BaseURL: server.URL + "/v1"},
		shared.GeneratorConfig{Model: "gpt-4o-mini", Temperature: 0.8, MaxTokens: 2000},
		server.Client(),
	)
}

func TestOpenAIService(t *testing.T) {
	ctx := context.Background()

	t.Run("Complete", func(t *testing.T) {
		svc := newOpenAITestService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/chat/completions" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.Header.Get("Authorization") != "Bearer sk-test" {
				t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
			}

			var req struct {
				Model       string  `json:"model"`
				Temperature float32 `json:"temperature"`
				MaxTokens   int     `json:"max_tokens"`
				Messages    []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("failed to decode request: %v", err)
			}
			if req.Model != "gpt-4o-mini" || req.MaxTokens != 2000 {
				t.Errorf("unexpected request %+v", req)
			}
			if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "give me songs" {
				t.Errorf("unexpected messages %+v", req.Messages)
			}

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"[]"},"finish_reason":"stop"}]}`))
		})

		out, err := svc.Complete(ctx, "be a music expert", "give me songs")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out != "[]" {
			t.Errorf("expected [] content, got %q", out)
		}
	})

	t.Run("No Choices", func(t *testing.T) {
		svc := newOpenAITestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[]}`))
		})

		out, err := svc.Complete(ctx, "s", "p")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out != "" {
			t.Errorf("expected empty content, got %q", out)
		}
	})

	t.Run("API Error", func(t *testing.T) {
		svc := newOpenAITestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error","code":"invalid_api_key"}}`))
		})

		_, err := svc.Complete(ctx, "s", "p")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Missing Key", func(t *testing.T) {
		svc := NewOpenAIService(shared.OpenAIConfig{}, shared.GeneratorConfig{}, nil)
		if svc.Configured() {
			t.Error("service without key should not be configured")
		}
		if svc.model != "gpt-4o-mini" {
			t.Errorf("expected default model, got %s", svc.model)
		}
		if _, err := svc.Complete(ctx, "s", "p"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}
