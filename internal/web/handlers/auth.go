package handlers

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/c24tools/authhub/internal/auth/token"
)

// StartAuthHandler builds the authorization URL for the current (or named)
// account. The browser is not redirected here; the dashboard opens the URL
// itself so the operator can see it first.
func StartAuthHandler(mgr *token.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID := r.URL.Query().Get("shop_id")
		authURL, err := mgr.StartAuth(shopID, callbackRedirect(r))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"auth_url": authURL,
			"message":  "Open the authorization URL in your browser.",
		})
	}
}

// CallbackHandler completes the authorization-code flow and renders a small
// result page, since the platform redirects a real browser here.
func CallbackHandler(mgr *token.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		rec, err := mgr.CompleteAuth(r.Context(), q.Get("state"), q.Get("code"), q.Get("error"))
		if err != nil {
			status := http.StatusBadGateway
			var cbErr *token.AuthCallbackError
			if errors.As(err, &cbErr) {
				status = http.StatusBadRequest
			}
			renderCallbackPage(w, status, false, err.Error(), "")
			return
		}
		expires := time.Unix(rec.ExpiresAt, 0).Format(time.RFC3339)
		renderCallbackPage(w, http.StatusOK, true, "Authorization complete.", expires)
	}
}

func renderCallbackPage(w http.ResponseWriter, status int, success bool, message, expires string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	heading := "❌ Authorization Failed"
	class := "failure"
	if success {
		heading = "✅ Authorization Successful"
		class = "success"
	}
	detail := ""
	if expires != "" {
		detail = fmt.Sprintf("<p><strong>Token expires:</strong> <code>%s</code></p>", expires)
	}

	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<meta http-equiv="refresh" content="3;url=/">
	<title>Authorization Result</title>
	<style>
		body { font-family: -apple-system, BlinkMacSystemFont, sans-serif; max-width: 600px; margin: 50px auto; padding: 20px; background: #1a1a2e; color: #eee; }
		.success { color: #4ade80; }
		.failure { color: #f87171; }
		code { background: #374151; padding: 2px 6px; border-radius: 4px; color: #fbbf24; }
		.redirect { color: #9ca3af; margin-top: 20px; }
	</style>
</head>
<body>
	<h1 class="%s">%s</h1>
	<p>%s</p>
	%s
	<p class="redirect">Returning to the dashboard in 3 seconds...</p>
</body>
</html>`, class, heading, html.EscapeString(message), detail)
}
