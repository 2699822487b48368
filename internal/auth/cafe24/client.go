package cafe24

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/c24tools/authhub/internal/store"
	"golang.org/x/oauth2"
)

const (
	// DefaultExpiresIn is assumed when the token response omits expires_in.
	DefaultExpiresIn = 7200 * time.Second

	requestTimeout = 30 * time.Second
)

// ErrNoRefreshToken is returned when a refresh is attempted for an account
// that has nothing to refresh.
var ErrNoRefreshToken = errors.New("no refresh token stored")

// TokenExchangeError reports a failed exchange against the token endpoint.
// Status is the upstream HTTP status, or 0 on a network-level failure.
// Callers must not retry automatically.
type TokenExchangeError struct {
	Status int
	Body   string
}

func (e *TokenExchangeError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("token exchange failed: %s", e.Body)
	}
	return fmt.Sprintf("token exchange failed (%d): %s", e.Status, e.Body)
}

// Client performs the authorization-code and refresh-token grants for any
// shop on one platform host. It is safe for concurrent use.
type Client struct {
	apiHost    string
	baseURL    string // test override, replaces the per-shop host
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a token client for the given API host suffix
// (DefaultAPIHost when empty).
func NewClient(apiHost string) *Client {
	if apiHost == "" {
		apiHost = DefaultAPIHost
	}
	return &Client{
		apiHost:    apiHost,
		httpClient: &http.Client{Timeout: requestTimeout},
		now:        time.Now,
	}
}

// NewTestClient returns a client aimed at a fixed base URL instead of the
// per-shop host. Only used by tests against a local fake token endpoint.
func NewTestClient(baseURL string) *Client {
	c := NewClient("")
	c.baseURL = baseURL
	return c
}

// ExchangeCode trades an authorization code for a fresh token record.
func (c *Client) ExchangeCode(ctx context.Context, acc *store.Account, code, redirectURI string) (*store.TokenRecord, error) {
	cfg := c.oauthConfig(acc, redirectURI)
	tok, err := cfg.Exchange(c.withHTTPClient(ctx), code)
	if err != nil {
		return nil, asExchangeError(err)
	}
	return c.normalize(tok, acc.Token), nil
}

// Refresh obtains a new token record with the account's stored refresh
// token. The caller decides what to do with a failure; the account's prior
// record is never touched here.
func (c *Client) Refresh(ctx context.Context, acc *store.Account) (*store.TokenRecord, error) {
	if acc.Token == nil || acc.Token.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}
	cfg := c.oauthConfig(acc, acc.RedirectURI)
	src := cfg.TokenSource(c.withHTTPClient(ctx), &oauth2.Token{RefreshToken: acc.Token.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, asExchangeError(err)
	}
	return c.normalize(tok, acc.Token), nil
}

// withHTTPClient routes the oauth2 transport through our bounded-timeout client.
func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// normalize converts an upstream token into a store record. When the
// response omits expires_in the platform default of two hours applies, and
// when it omits refresh_token the prior one is carried forward rather than
// dropped.
func (c *Client) normalize(tok *oauth2.Token, prior *store.TokenRecord) *store.TokenRecord {
	now := c.now()
	rec := &store.TokenRecord{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry.Unix(),
		IssuedAt:     now.Unix(),
	}
	if tok.Expiry.IsZero() {
		rec.ExpiresAt = now.Add(DefaultExpiresIn).Unix()
	}
	if rec.RefreshToken == "" && prior != nil {
		rec.RefreshToken = prior.RefreshToken
	}
	return rec
}

func asExchangeError(err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		status := 0
		if rerr.Response != nil {
			status = rerr.Response.StatusCode
		}
		return &TokenExchangeError{Status: status, Body: string(rerr.Body)}
	}
	return &TokenExchangeError{Status: 0, Body: err.Error()}
}
