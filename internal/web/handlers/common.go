// Package handlers implements the local web surface: account configuration,
// the authorization flow, token status/refresh, and the dashboard.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/c24tools/authhub/internal/auth/cafe24"
	"github.com/c24tools/authhub/internal/auth/token"
	"github.com/c24tools/authhub/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, success bool, msg string) {
	writeJSON(w, status, map[string]any{"success": success, "message": msg})
}

// writeDomainError maps the manager/store/client error kinds onto HTTP
// responses. Nothing here is fatal; the server keeps running after any
// failure.
func writeDomainError(w http.ResponseWriter, err error) {
	var xerr *cafe24.TokenExchangeError
	var cbErr *token.AuthCallbackError
	switch {
	case errors.Is(err, store.ErrAccountNotFound):
		writeMessage(w, http.StatusNotFound, false, err.Error())
	case errors.Is(err, token.ErrConfigIncomplete):
		writeMessage(w, http.StatusBadRequest, false, err.Error())
	case errors.Is(err, cafe24.ErrNoRefreshToken):
		writeMessage(w, http.StatusBadRequest, false, err.Error())
	case errors.As(err, &cbErr):
		writeMessage(w, http.StatusBadRequest, false, cbErr.Error())
	case errors.As(err, &xerr):
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"success":         false,
			"message":         "token exchange failed",
			"upstream_status": xerr.Status,
			"upstream_body":   xerr.Body,
		})
	default:
		writeMessage(w, http.StatusInternalServerError, false, err.Error())
	}
}

// callbackRedirect derives the default redirect_uri from the incoming
// request, mirroring how the operator reached this server.
func callbackRedirect(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/api/auth/callback"
}
