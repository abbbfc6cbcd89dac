package capi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ignite/click-relay/internal/pkg/httpretry"
)

// Client is the Meta Conversions API client.
type Client struct {
	pixelID       string
	accessToken   string
	testEventCode string
	baseURL       string
	version       string
	httpClient    httpretry.HTTPDoer
}

// NewClient creates a Conversions API client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://graph.facebook.com"
	}
	version := cfg.Version
	if version == "" {
		version = "v18.0"
	}
	return &Client{
		pixelID:       cfg.PixelID,
		accessToken:   cfg.AccessToken,
		testEventCode: cfg.TestEventCode,
		baseURL:       baseURL,
		version:       version,
		httpClient:    httpretry.NewRetryClient(&http.Client{Timeout: timeout}, 2),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// SendEvents posts a batch of conversion events to the pixel's /events
// endpoint. A non-2xx response is returned as an error carrying the body so
// the caller can log Meta's validation detail.
func (c *Client) SendEvents(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	payload := eventsRequest{
		Data:          events,
		AccessToken:   c.accessToken,
		TestEventCode: c.testEventCode,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal events: %w", err)
	}

	reqURL := fmt.Sprintf("%s/%s/%s/events", c.baseURL, c.version, c.pixelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send events: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("conversions API error (status %d): %s", resp.StatusCode, string(respBody))
	}
	return nil
}
