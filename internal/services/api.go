// API service for talking to a running playlister server
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// APIService provides methods for making raw HTTP requests to a playlister server.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	cookie     *http.Cookie
}

// NewAPIService creates a new API service instance for the server at baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    baseURL,
		httpClient: client,
	}
}

// WithSession attaches a session cookie to every request.
func (a *APIService) WithSession(name, value string) *APIService {
	a.cookie = &http.Cookie{Name: name, Value: value}
	return a
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	HasOpenAI bool   `json:"hasOpenAI"`
}

// SessionStatus is the body of GET /auth/session.
type SessionStatus struct {
	User     map[string]any `json:"user"`
	LoggedIn bool           `json:"loggedIn"`
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.do(ctx, http.MethodPost, path, data)
}

// Health fetches the server's health report.
func (a *APIService) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := a.getJSON(ctx, "/health", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Session reports whether the attached session cookie is signed in.
func (a *APIService) Session(ctx context.Context) (*SessionStatus, error) {
	var status SessionStatus
	if err := a.getJSON(ctx, "/auth/session", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (a *APIService) getJSON(ctx context.Context, path string, v any) error {
	resp, err := a.Get(ctx, path)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func (a *APIService) do(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.cookie != nil {
		req.AddCookie(a.cookie)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}

	var jsonData any
	if err := json.Unmarshal(respBody, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}
