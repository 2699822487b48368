package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/c24tools/authhub/internal/store"
)

// configRequest is the settings form payload. shop_id may be supplied
// directly or derived from app_url.
type configRequest struct {
	AppURL       string   `json:"app_url"`
	ShopID       string   `json:"shop_id"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	ServiceKey   string   `json:"service_key"`
	RedirectURI  string   `json:"redirect_uri"`
	Scopes       []string `json:"scopes"`
}

// ConfigHandler reads (GET) or saves (POST) the current account's
// credentials. Saving credentials preserves any token the account already
// holds.
func ConfigHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			acc, err := st.GetCurrent()
			if err != nil {
				if errors.Is(err, store.ErrAccountNotFound) {
					writeJSON(w, http.StatusOK, map[string]any{})
					return
				}
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, acc)

		case http.MethodPost:
			var req configRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeMessage(w, http.StatusBadRequest, false, "invalid JSON body: "+err.Error())
				return
			}

			shopID := req.ShopID
			if req.AppURL != "" {
				shopID = store.DeriveShopID(req.AppURL)
			}
			if shopID == "" {
				writeMessage(w, http.StatusBadRequest, false, "shop_id or app_url is required")
				return
			}

			acc := &store.Account{
				ClientID:     req.ClientID,
				ClientSecret: req.ClientSecret,
				ServiceKey:   req.ServiceKey,
				RedirectURI:  req.RedirectURI,
				Scopes:       req.Scopes,
			}
			if existing, err := st.Get(shopID); err == nil {
				acc.Token = existing.Token
				acc.NeedsReauth = existing.NeedsReauth
			}
			if err := st.Upsert(shopID, acc); err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"message": "Settings saved.",
				"shop_id": shopID,
			})

		default:
			writeMessage(w, http.StatusMethodNotAllowed, false, "method not allowed")
		}
	}
}
