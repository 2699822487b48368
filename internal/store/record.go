package store

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// DefaultScopes are requested when an account has no explicit scope list.
var DefaultScopes = []string{
	"mall.read_application",
	"mall.write_application",
	"mall.read_category",
	"mall.write_category",
	"mall.read_product",
	"mall.write_product",
}

// Account holds the credentials and token state for one Cafe24 shop.
type Account struct {
	ShopID       string       `json:"shop_id"`
	ClientID     string       `json:"client_id"`
	ClientSecret string       `json:"client_secret"`
	ServiceKey   string       `json:"service_key,omitempty"`
	RedirectURI  string       `json:"redirect_uri,omitempty"`
	Scopes       []string     `json:"scopes,omitempty"`
	Token        *TokenRecord `json:"token,omitempty"`
	NeedsReauth  bool         `json:"needs_reauth,omitempty"`
}

// EffectiveScopes returns the account's scope list, falling back to DefaultScopes.
func (a *Account) EffectiveScopes() []string {
	if len(a.Scopes) > 0 {
		return a.Scopes
	}
	return DefaultScopes
}

// TokenRecord is one issued access/refresh token pair. It is replaced
// wholesale on every successful exchange or refresh, never partially mutated.
type TokenRecord struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    int64  `json:"expires_at"`
	IssuedAt     int64  `json:"issued_at"`
}

// UnmarshalJSON coerces the timestamp fields defensively: earlier tooling
// wrote expires_at as a string and issued_at as an ISO-8601 datetime.
// Unparsable values become 0, which readers treat as already expired.
func (t *TokenRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		AccessToken  string          `json:"access_token"`
		RefreshToken string          `json:"refresh_token"`
		ExpiresAt    json.RawMessage `json:"expires_at"`
		IssuedAt     json.RawMessage `json:"issued_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.AccessToken = raw.AccessToken
	t.RefreshToken = raw.RefreshToken
	t.ExpiresAt = coerceUnix(raw.ExpiresAt)
	t.IssuedAt = coerceUnix(raw.IssuedAt)
	return nil
}

// coerceUnix accepts a JSON number, a numeric string, or an RFC3339-ish
// datetime string and returns Unix seconds, or 0 when nothing parses.
func coerceUnix(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int64(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.Unix()
		}
	}
	return 0
}

// DeriveShopID extracts the shop identifier from an app URL:
// https://ecudemo378885.cafe24.com -> ecudemo378885
func DeriveShopID(appURL string) string {
	s := strings.TrimSpace(appURL)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	if s == "" {
		return ""
	}
	if idx := strings.IndexByte(s, '.'); idx != -1 {
		return s[:idx]
	}
	return s
}
