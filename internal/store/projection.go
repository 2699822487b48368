package store

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
)

// envKeys lists the keys mirrored into the env file, in write order.
var envKeys = []string{
	"CAFE24_CLIENT_ID",
	"CAFE24_CLIENT_SECRET",
	"CAFE24_SERVICE_KEY",
	"CAFE24_SHOP_ID",
	"REDIRECT_URI",
	"ACCESS_TOKEN",
	"REFRESH_TOKEN",
}

// projectLocked rewrites the derived views of the current account: the
// legacy single-account config file and the env file. Both are overwritable
// projections, never a second source of truth, so failures here are logged
// and do not fail the save.
func (s *Store) projectLocked(st *State) {
	acc := st.Accounts[st.CurrentAccount]
	if acc == nil {
		return
	}
	if s.legacyPath != "" {
		if err := writeLegacyConfig(s.legacyPath, acc); err != nil {
			log.Printf("⚠️ Failed to write legacy config %s: %v", s.legacyPath, err)
		}
	}
	if s.envPath != "" {
		if err := updateEnvFile(s.envPath, envValues(acc)); err != nil {
			log.Printf("⚠️ Failed to update env file %s: %v", s.envPath, err)
		}
	}
}

// writeLegacyConfig mirrors one account into the old single-account layout.
func writeLegacyConfig(path string, acc *Account) error {
	legacy := struct {
		ShopID       string       `json:"shop_id"`
		ClientID     string       `json:"client_id"`
		ClientSecret string       `json:"client_secret"`
		ServiceKey   string       `json:"service_key,omitempty"`
		RedirectURI  string       `json:"redirect_uri,omitempty"`
		Scopes       []string     `json:"scopes,omitempty"`
		Token        *TokenRecord `json:"token,omitempty"`
	}{
		ShopID:       acc.ShopID,
		ClientID:     acc.ClientID,
		ClientSecret: acc.ClientSecret,
		ServiceKey:   acc.ServiceKey,
		RedirectURI:  acc.RedirectURI,
		Scopes:       acc.Scopes,
		Token:        acc.Token,
	}
	data, err := json.MarshalIndent(legacy, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

func envValues(acc *Account) map[string]string {
	vals := map[string]string{
		"CAFE24_CLIENT_ID":     acc.ClientID,
		"CAFE24_CLIENT_SECRET": acc.ClientSecret,
		"CAFE24_SERVICE_KEY":   acc.ServiceKey,
		"CAFE24_SHOP_ID":       acc.ShopID,
		"REDIRECT_URI":         acc.RedirectURI,
		"ACCESS_TOKEN":         "",
		"REFRESH_TOKEN":        "",
	}
	if acc.Token != nil {
		vals["ACCESS_TOKEN"] = acc.Token.AccessToken
		vals["REFRESH_TOKEN"] = acc.Token.RefreshToken
	}
	return vals
}

// updateEnvFile rewrites the managed keys in a KEY=value file, preserving
// every unmanaged line. A missing file is left alone: the env file belongs
// to sibling tooling and is only updated when it already exists.
func updateEnvFile(path string, vals map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	seen := make(map[string]bool)
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		key, _, ok := strings.Cut(trimmed, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if val, managed := vals[key]; managed {
			lines[i] = key + "=" + val
			seen[key] = true
		}
	}
	for _, key := range envKeys {
		if !seen[key] {
			lines = append(lines, key+"="+vals[key])
		}
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600)
}
