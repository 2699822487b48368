// Package token owns the token lifecycle: the refresh decision policy, the
// manager the web surface calls, and the scheduled refresh sweep.
package token

import (
	"time"

	"github.com/c24tools/authhub/internal/store"
)

// RefreshThreshold is how close to expiry a token must be before it is
// refreshed ahead of time.
const RefreshThreshold = time.Hour

// State classifies a token record at a point in time.
type State int

const (
	// Missing means there is no record, or no refresh token to act with.
	Missing State = iota
	// Fresh means the token is valid and not close to expiry.
	Fresh
	// NeedsRefresh means the token is still valid but inside the threshold.
	NeedsRefresh
	// Expired means the access token has lapsed. A refresh is still worth
	// attempting since the refresh token commonly outlives it; if that
	// fails the account needs full re-authorization.
	Expired
)

func (s State) String() string {
	switch s {
	case Missing:
		return "missing"
	case Fresh:
		return "fresh"
	case NeedsRefresh:
		return "needs_refresh"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Classify is the single decision point for both the interactive refresh and
// the scheduled sweep, so behavior is identical in both paths.
func Classify(rec *store.TokenRecord, now time.Time) State {
	if rec == nil || rec.RefreshToken == "" {
		return Missing
	}
	remaining := rec.ExpiresAt - now.Unix()
	switch {
	case remaining <= 0:
		return Expired
	case remaining < int64(RefreshThreshold/time.Second):
		return NeedsRefresh
	default:
		return Fresh
	}
}
