package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hpn/hpn-blueprint/internal/domain"
)

// DefaultTimeout is the default HTTP client timeout.
// Long documents take a while, so this is generous.
const DefaultTimeout = 120 * time.Second

// Option is a functional option shared by every adapter.
type Option func(*client)

// WithBaseURL sets a custom base URL for the vendor API.
func WithBaseURL(url string) Option {
	return func(c *client) {
		if url = strings.TrimSuffix(strings.TrimSpace(url), "/"); url != "" {
			c.baseURL = url
		}
	}
}

// WithModel sets the model used when a TextRequest does not name one.
func WithModel(model string) Option {
	return func(c *client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the HTTP client timeout.
// The client is copied so a shared *http.Client is never mutated.
func WithTimeout(timeout time.Duration) Option {
	return func(c *client) {
		if timeout <= 0 {
			return
		}
		hc := *c.httpClient
		hc.Timeout = timeout
		c.httpClient = &hc
	}
}

// client is the plumbing every adapter embeds: endpoint, credentials and one JSON round trip.
type client struct {
	provider   domain.ProviderType
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func newClient(provider domain.ProviderType, apiKey string, opts []Option) client {
	defaults, _ := domain.LookupProvider(provider)

	c := &client{
		provider:   provider,
		apiKey:     apiKey,
		baseURL:    defaults.BaseURL,
		model:      defaults.DefaultModel,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return *c
}

// Name returns the provider identifier.
func (c *client) Name() string {
	return string(c.provider)
}

func (c *client) modelFor(req TextRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return c.model
}

// postJSON marshals payload, POSTs it to url and decodes a 2xx body into out.
// Non-2xx answers come back as *APIError; the raw status and body are passed
// to onError first so an adapter can phrase its own message.
func (c *client) postJSON(ctx context.Context, url string, headers map[string]string, payload, out any, onError func(status int, body []byte) error) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", c.provider, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to execute %s request: %w", c.provider, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", c.provider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if onError != nil {
			if custom := onError(resp.StatusCode, respBody); custom != nil {
				return custom
			}
		}
		return &APIError{
			Provider:   string(c.provider),
			StatusCode: resp.StatusCode,
			Message:    vendorMessage(resp.StatusCode, respBody),
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s response: %w", c.provider, err)
	}
	return nil
}

func (c *client) bearer() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.apiKey}
}

func (c *client) empty(what string) error {
	return fmt.Errorf("%w from %s: %s", ErrEmptyResponse, c.provider, what)
}
