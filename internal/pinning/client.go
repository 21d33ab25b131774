// Package pinning uploads asset files to an IPFS pinning service.
//
// The service accepts a raw file body at POST <endpoint>/upload and answers
// {"ok": true, "value": {"cid": "..."}}. Client implements metadata.Pinner.
package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/roach88/mintctl/internal/metadata"
)

const defaultTimeout = 5 * time.Minute

// Client uploads files to a pinning service.
type Client struct {
	endpoint   string
	key        string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ metadata.Pinner = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger sets the client's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a pinning client.
func New(endpoint, key string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("pinning endpoint required")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("pinning api key required")
	}

	c := &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		key:        key,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type uploadResponse struct {
	OK    bool `json:"ok"`
	Value struct {
		CID string `json:"cid"`
	} `json:"value"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Pin uploads data and returns the CID the service assigned.
func (c *Client) Pin(ctx context.Context, name string, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/upload", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/octet-stream")
	if name != "" {
		req.Header.Set("X-Name", name)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		return "", fmt.Errorf("upload %s (latency=%v): %w", name, latency, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}

	var payload uploadResponse
	decodeErr := json.Unmarshal(body, &payload)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		if decodeErr == nil && payload.Error.Message != "" {
			msg = payload.Error.Message
		}
		return "", fmt.Errorf("upload %s: pinning service returned %d: %s", name, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode upload response: %w", decodeErr)
	}
	if !payload.OK || payload.Value.CID == "" {
		return "", fmt.Errorf("upload %s: pinning service returned no CID", name)
	}

	c.logger.Debug("file uploaded",
		"name", name,
		"bytes", len(data),
		"cid", payload.Value.CID,
		"latency", latency)
	return payload.Value.CID, nil
}
