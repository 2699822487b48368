package handlers

import (
	"net/http"
	"sort"

	"github.com/c24tools/authhub/internal/store"
	"github.com/go-chi/chi/v5"
)

// AccountsHandler lists every stored account.
func AccountsHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := st.Load()
		if err != nil {
			writeDomainError(w, err)
			return
		}

		type accountView struct {
			ShopID      string `json:"shop_id"`
			HasToken    bool   `json:"has_token"`
			ExpiresAt   int64  `json:"expires_at,omitempty"`
			NeedsReauth bool   `json:"needs_reauth,omitempty"`
			IsCurrent   bool   `json:"is_current"`
		}

		views := make([]accountView, 0, len(state.Accounts))
		for id, acc := range state.Accounts {
			v := accountView{
				ShopID:      id,
				NeedsReauth: acc.NeedsReauth,
				IsCurrent:   id == state.CurrentAccount,
			}
			if acc.Token != nil && acc.Token.AccessToken != "" {
				v.HasToken = true
				v.ExpiresAt = acc.Token.ExpiresAt
			}
			views = append(views, v)
		}
		sort.Slice(views, func(i, j int) bool { return views[i].ShopID < views[j].ShopID })

		writeJSON(w, http.StatusOK, map[string]any{
			"accounts":        views,
			"count":           len(views),
			"current_account": state.CurrentAccount,
		})
	}
}

// SelectAccountHandler makes one account current.
func SelectAccountHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID := chi.URLParam(r, "shopID")
		if err := st.SetCurrent(shopID); err != nil {
			writeDomainError(w, err)
			return
		}
		writeMessage(w, http.StatusOK, true, "Current account set to "+shopID)
	}
}

// DeleteAccountHandler removes an account and its token.
func DeleteAccountHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID := chi.URLParam(r, "shopID")
		if err := st.Delete(shopID); err != nil {
			writeDomainError(w, err)
			return
		}
		writeMessage(w, http.StatusOK, true, "Account "+shopID+" deleted")
	}
}
