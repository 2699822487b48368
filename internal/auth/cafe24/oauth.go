// Package cafe24 talks to the Cafe24 platform's OAuth endpoints and
// normalizes token responses into store records.
package cafe24

import (
	"fmt"
	"strings"

	"github.com/c24tools/authhub/internal/store"
	"golang.org/x/oauth2"
)

// DefaultAPIHost is the per-shop API domain suffix:
// https://{shop_id}.cafe24api.com
const DefaultAPIHost = "cafe24api.com"

// endpoint returns the OAuth2 endpoint for one shop. Cafe24 authenticates
// token requests with a Basic header built from client_id:client_secret.
func (c *Client) endpoint(shopID string) oauth2.Endpoint {
	base := c.baseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.%s", shopID, c.apiHost)
	}
	return oauth2.Endpoint{
		AuthURL:   base + "/api/v2/oauth/authorize",
		TokenURL:  base + "/api/v2/oauth/token",
		AuthStyle: oauth2.AuthStyleInHeader,
	}
}

// oauthConfig builds the per-account OAuth2 config. Cafe24 expects the scope
// parameter comma-joined, so the whole list is passed as a single scope.
func (c *Client) oauthConfig(acc *store.Account, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     acc.ClientID,
		ClientSecret: acc.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{strings.Join(acc.EffectiveScopes(), ",")},
		Endpoint:     c.endpoint(acc.ShopID),
	}
}

// AuthCodeURL builds the authorization URL the operator's browser is sent to.
func (c *Client) AuthCodeURL(acc *store.Account, state, redirectURI string) string {
	return c.oauthConfig(acc, redirectURI).AuthCodeURL(state)
}
