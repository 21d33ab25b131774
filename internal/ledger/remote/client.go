// Package remote implements ledger.Gateway over a JSON HTTP gateway that
// fronts a live network (testnet or mainnet). Each gateway call maps to one
// request; transactions are submitted and sealed server-side before the
// response returns.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/roach88/mintctl/internal/ledger"
)

// DefaultTimeout bounds a single gateway request. Transactions wait for
// sealing, so it is generous.
const DefaultTimeout = 2 * time.Minute

// maxErrorBody caps how much of an error response is kept in StatusError.
const maxErrorBody = 4096

// StatusError is a non-2xx gateway response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway %s %s returned %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("gateway %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Client talks to a ledger gateway.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ledger.Gateway = (*Client)(nil)

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

// New creates a gateway client. token may be empty for unauthenticated
// gateways.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("gateway url required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("parse gateway url: %w", err)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type lookupRequest struct {
	MintIDs []string `json:"mint_ids"`
}

type lookupResponse struct {
	Editions []*ledger.Edition `json:"editions"`
}

// EditionsByMintID implements ledger.Gateway.
func (c *Client) EditionsByMintID(ctx context.Context, mintIDs []string) ([]*ledger.Edition, error) {
	var resp lookupResponse
	if err := c.post(ctx, "/editions/lookup", lookupRequest{MintIDs: mintIDs}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Editions) != len(mintIDs) {
		return nil, fmt.Errorf("gateway returned %d editions for %d mint IDs", len(resp.Editions), len(mintIDs))
	}
	return resp.Editions, nil
}

type createRequest struct {
	MintIDs []string             `json:"mint_ids"`
	Limits  []*uint64            `json:"limits"`
	Fields  []ledger.FieldColumn `json:"fields"`
}

type createResponse struct {
	Editions []ledger.CreatedEdition `json:"editions"`
}

// CreateEditions implements ledger.Gateway.
func (c *Client) CreateEditions(ctx context.Context, mintIDs []string, limits []*uint64, fields []ledger.FieldColumn) ([]ledger.CreatedEdition, error) {
	var resp createResponse
	req := createRequest{MintIDs: mintIDs, Limits: limits, Fields: fields}
	if err := c.post(ctx, "/editions", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Editions) != len(mintIDs) {
		return nil, fmt.Errorf("gateway created %d editions for %d mint IDs", len(resp.Editions), len(mintIDs))
	}
	return resp.Editions, nil
}

type mintRequest struct {
	Count int `json:"count"`
}

type claimMintRequest struct {
	PublicKeys []string `json:"public_keys"`
}

type mintResponse struct {
	NFTs []ledger.MintedNFT `json:"nfts"`
}

// MintEdition implements ledger.Gateway.
func (c *Client) MintEdition(ctx context.Context, editionID string, count int) ([]ledger.MintedNFT, error) {
	var resp mintResponse
	path := "/editions/" + url.PathEscape(editionID) + "/mint"
	if err := c.post(ctx, path, mintRequest{Count: count}, &resp); err != nil {
		return nil, err
	}
	if len(resp.NFTs) != count {
		return nil, fmt.Errorf("gateway minted %d items, requested %d", len(resp.NFTs), count)
	}
	return resp.NFTs, nil
}

// MintEditionWithClaimKeys implements ledger.Gateway.
func (c *Client) MintEditionWithClaimKeys(ctx context.Context, editionID string, publicKeys []string) ([]ledger.MintedNFT, error) {
	var resp mintResponse
	path := "/editions/" + url.PathEscape(editionID) + "/claim-mint"
	if err := c.post(ctx, path, claimMintRequest{PublicKeys: publicKeys}, &resp); err != nil {
		return nil, err
	}
	if len(resp.NFTs) != len(publicKeys) {
		return nil, fmt.Errorf("gateway minted %d items, requested %d", len(resp.NFTs), len(publicKeys))
	}
	return resp.NFTs, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("gateway request",
		"path", path,
		"status", resp.StatusCode,
		"latency", latency)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(req, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// statusError builds a StatusError, preferring a JSON {"error": "..."} body
// over the raw text.
func statusError(req *http.Request, resp *http.Response) *StatusError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	}

	return &StatusError{
		Method:     req.Method,
		Path:       req.URL.Path,
		StatusCode: resp.StatusCode,
		Message:    msg,
	}
}
