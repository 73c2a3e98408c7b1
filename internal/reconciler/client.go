// Package reconciler embeds the per-instance activation logic: it merges
// cached, local-durable, and remote activation state into the single
// decision the rest of the application consults before allowing work.
package reconciler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultAuthorityURL = "http://localhost:5000"

// APIError is returned when the authority is reachable but rejects the
// request. It is distinct from transport errors so callers can branch on
// rejected-versus-unreachable.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("authority API error (status %d): %s", e.StatusCode, e.Message)
}

// CheckResponse is the authority's answer to a check_activation call.
type CheckResponse struct {
	Active    bool   `json:"active"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// HealthResponse is the authority's health probe answer.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ServiceInfo is the authority's descriptive metadata.
type ServiceInfo struct {
	Service   string `json:"service"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ActivationStatus mirrors the authority's persisted state in mutation
// responses.
type ActivationStatus struct {
	Active      bool      `json:"active"`
	Message     string    `json:"message"`
	LastUpdated time.Time `json:"last_updated"`
}

// MutationResponse is the authority's answer to an admin mutation.
type MutationResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Status  ActivationStatus `json:"status"`
}

// Client is an HTTP client for the activation authority.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for the given base URL with a bounded request
// timeout. An empty URL selects the default local authority.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultAuthorityURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CheckActivation asks the authority for the activation decision using the
// given bearer credential.
func (c *Client) CheckActivation(ctx context.Context, apiKey string) (*CheckResponse, error) {
	var resp CheckResponse
	if err := c.get(ctx, "/api/check_activation", apiKey, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health probes the authority. It distinguishes service-down from
// credential-invalid: health never requires a credential.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get(ctx, "/health", "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Info fetches the authority's descriptive metadata.
func (c *Client) Info(ctx context.Context) (*ServiceInfo, error) {
	var resp ServiceInfo
	if err := c.get(ctx, "/api/status", "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetActivation overwrites the authority state. Requires an admin
// credential.
func (c *Client) SetActivation(ctx context.Context, apiKey string, active bool, message string) (*MutationResponse, error) {
	body := map[string]any{"active": active}
	if message != "" {
		body["message"] = message
	}
	var resp MutationResponse
	if err := c.post(ctx, "/api/set_activation", apiKey, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Activate is the convenience form of SetActivation(true) with the
// authority's fixed message.
func (c *Client) Activate(ctx context.Context, apiKey string) (*MutationResponse, error) {
	var resp MutationResponse
	if err := c.post(ctx, "/admin/activate", apiKey, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Deactivate is the convenience form of SetActivation(false).
func (c *Client) Deactivate(ctx context.Context, apiKey string) (*MutationResponse, error) {
	var resp MutationResponse
	if err := c.post(ctx, "/admin/deactivate", apiKey, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, path, apiKey string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, apiKey, out)
}

func (c *Client) post(ctx context.Context, path, apiKey string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = strings.NewReader(string(data))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, apiKey, out)
}

func (c *Client) do(req *http.Request, apiKey string, out any) error {
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach authority: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return newAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// newAPIError extracts the error message from a JSON body, falling back to
// the raw body text.
func newAPIError(resp *http.Response) *APIError {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: body.Error}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
}
