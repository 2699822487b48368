package handlers

import (
	"net/http"
	"strconv"

	"github.com/c24tools/authhub/internal/db"
	"gorm.io/gorm"
)

// HistoryHandler lists recent token exchange/refresh attempts.
func HistoryHandler(gdb *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID := r.URL.Query().Get("shop_id")
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		logs, err := db.RecentRefreshes(gdb, shopID, limit)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"history": logs,
			"count":   len(logs),
		})
	}
}
