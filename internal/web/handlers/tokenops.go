package handlers

import (
	"net/http"

	"github.com/c24tools/authhub/internal/auth/token"
)

// RefreshHandler refreshes the current (or named) account's token on
// operator request.
func RefreshHandler(mgr *token.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeMessage(w, http.StatusMethodNotAllowed, false, "method not allowed")
			return
		}
		shopID := r.URL.Query().Get("shop_id")
		rec, err := mgr.ManualRefresh(r.Context(), shopID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Token refreshed.",
			"token":   rec,
		})
	}
}

// StatusHandler reports the current (or named) account's token state.
func StatusHandler(mgr *token.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID := r.URL.Query().Get("shop_id")
		s, err := mgr.Status(shopID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		formatted := ""
		if s.HasToken {
			formatted = token.FormatRemaining(s.TimeRemaining)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"shop_id":                  s.ShopID,
			"has_token":                s.HasToken,
			"is_expired":               s.IsExpired,
			"expires_at":               s.ExpiresAt,
			"issued_at":                s.IssuedAt,
			"time_remaining":           s.TimeRemaining,
			"time_remaining_formatted": formatted,
			"needs_reauth":             s.NeedsReauth,
			"state":                    s.State,
		})
	}
}
