// Package upstream calls the Cafe24 admin API with a stored access token,
// backing the dashboard's "test this token" action.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/c24tools/authhub/internal/store"
)

// DefaultAPIVersion is sent as X-Cafe24-Api-Version unless configured.
const DefaultAPIVersion = "2025-09-01"

// DefaultTestEndpoint is probed when the operator does not name one.
const DefaultTestEndpoint = "/api/v2/admin/products"

// Client issues authenticated admin API requests for any shop on one
// platform host.
type Client struct {
	apiHost    string
	apiVersion string
	baseURL    string // test override
	httpClient *http.Client
}

// NewClient creates an admin API client. Empty arguments fall back to the
// platform defaults.
func NewClient(apiHost, apiVersion string) *Client {
	if apiHost == "" {
		apiHost = "cafe24api.com"
	}
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	return &Client{
		apiHost:    apiHost,
		apiVersion: apiVersion,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Result carries the upstream status and raw JSON body of a test call.
type Result struct {
	StatusCode int
	Body       json.RawMessage
}

// AdminGet performs a bearer-authenticated GET against one admin endpoint
// (a path starting with /). Non-2xx responses are returned as a Result, not
// an error, so the caller can relay exactly what the platform said.
func (c *Client) AdminGet(ctx context.Context, acc *store.Account, endpoint string) (*Result, error) {
	if acc.Token == nil || acc.Token.AccessToken == "" {
		return nil, fmt.Errorf("account %s has no access token", acc.ShopID)
	}
	if endpoint == "" {
		endpoint = DefaultTestEndpoint
	}
	if !strings.HasPrefix(endpoint, "/") {
		return nil, fmt.Errorf("endpoint must start with /: %q", endpoint)
	}

	base := c.baseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.%s", acc.ShopID, c.apiHost)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+acc.Token.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Cafe24-Api-Version", c.apiVersion)
	req.Header.Set("X-Cafe24-Client-Id", acc.ClientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("admin API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read admin API response: %w", err)
	}
	if !json.Valid(body) {
		body, _ = json.Marshal(string(body))
	}
	return &Result{StatusCode: resp.StatusCode, Body: body}, nil
}
