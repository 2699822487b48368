package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/c24tools/authhub/internal/store"
	"github.com/c24tools/authhub/internal/upstream"
)

// APITestHandler probes an admin API endpoint with the current account's
// access token so the operator can verify the token actually works.
func APITestHandler(st *store.Store, client *upstream.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ShopID   string `json:"shop_id"`
			Endpoint string `json:"endpoint"`
		}
		if r.Body != nil {
			json.NewDecoder(r.Body).Decode(&req) // empty body means defaults
		}

		var acc *store.Account
		var err error
		if req.ShopID != "" {
			acc, err = st.Get(req.ShopID)
		} else {
			acc, err = st.GetCurrent()
		}
		if err != nil {
			writeDomainError(w, err)
			return
		}

		res, err := client.AdminGet(r.Context(), acc, req.Endpoint)
		if err != nil {
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"success": false,
				"message": "API call failed: " + err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":     res.StatusCode >= 200 && res.StatusCode < 300,
			"status_code": res.StatusCode,
			"data":        res.Body,
		})
	}
}
