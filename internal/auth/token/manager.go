package token

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/c24tools/authhub/internal/auth/cafe24"
	"github.com/c24tools/authhub/internal/db"
	"github.com/c24tools/authhub/internal/db/models"
	"github.com/c24tools/authhub/internal/store"
	"github.com/c24tools/authhub/internal/util"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultSweepInterval is how often the scheduled refresh sweep fires.
const DefaultSweepInterval = time.Hour

// pendingStateTTL bounds how long an unfinished authorization flow keeps its
// CSRF state valid.
const pendingStateTTL = 15 * time.Minute

// ErrConfigIncomplete is returned when an account is missing the client_id
// or shop_id needed to start authorization.
var ErrConfigIncomplete = errors.New("client_id and shop_id must be configured before authorization")

// AuthCallbackError reports a failed authorization callback: the upstream
// sent an error parameter, no code arrived, or the state did not match.
type AuthCallbackError struct {
	Reason string
}

func (e *AuthCallbackError) Error() string {
	return "authorization callback failed: " + e.Reason
}

// Status is the token summary exposed to the web surface.
type Status struct {
	ShopID        string `json:"shop_id"`
	HasToken      bool   `json:"has_token"`
	IsExpired     bool   `json:"is_expired"`
	ExpiresAt     int64  `json:"expires_at,omitempty"`
	IssuedAt      int64  `json:"issued_at,omitempty"`
	TimeRemaining int64  `json:"time_remaining"`
	NeedsReauth   bool   `json:"needs_reauth,omitempty"`
	State         string `json:"state"`
}

type pendingAuth struct {
	shopID      string
	redirectURI string
	startedAt   time.Time
}

// Manager drives the token lifecycle for every stored account: interactive
// authorization, manual refresh, status reporting, and the scheduled sweep.
type Manager struct {
	store  *store.Store
	client *cafe24.Client
	gdb    *gorm.DB // refresh history, may be nil

	mu      sync.Mutex
	pending map[string]pendingAuth // CSRF state -> flow
	now     func() time.Time
}

// NewManager wires the manager to its store, token client, and optional
// history database.
func NewManager(st *store.Store, client *cafe24.Client, gdb *gorm.DB) *Manager {
	return &Manager{
		store:   st,
		client:  client,
		gdb:     gdb,
		pending: make(map[string]pendingAuth),
		now:     time.Now,
	}
}

// resolve returns the named account, or the current one when shopID is empty.
func (m *Manager) resolve(shopID string) (*store.Account, error) {
	if shopID == "" {
		return m.store.GetCurrent()
	}
	return m.store.Get(shopID)
}

// StartAuth builds the authorization URL for an account and registers a
// single-use CSRF state for the flow. fallbackRedirect is used when the
// account has no redirect_uri configured.
func (m *Manager) StartAuth(shopID, fallbackRedirect string) (string, error) {
	acc, err := m.resolve(shopID)
	if err != nil {
		return "", err
	}
	if acc.ClientID == "" || acc.ShopID == "" {
		return "", ErrConfigIncomplete
	}

	redirectURI := acc.RedirectURI
	if redirectURI == "" {
		redirectURI = fallbackRedirect
	}

	state := uuid.NewString()
	m.mu.Lock()
	for s, p := range m.pending {
		if m.now().Sub(p.startedAt) > pendingStateTTL {
			delete(m.pending, s)
		}
	}
	m.pending[state] = pendingAuth{shopID: acc.ShopID, redirectURI: redirectURI, startedAt: m.now()}
	m.mu.Unlock()

	return m.client.AuthCodeURL(acc, state, redirectURI), nil
}

// CompleteAuth finishes the authorization-code flow: it validates the
// callback, exchanges the code, and stores the resulting token record.
func (m *Manager) CompleteAuth(ctx context.Context, state, code, upstreamErr string) (*store.TokenRecord, error) {
	if upstreamErr != "" {
		return nil, &AuthCallbackError{Reason: "upstream returned error: " + upstreamErr}
	}
	if code == "" {
		return nil, &AuthCallbackError{Reason: "no authorization code received"}
	}

	m.mu.Lock()
	flow, ok := m.pending[state]
	if ok {
		delete(m.pending, state)
	}
	m.mu.Unlock()
	if !ok {
		return nil, &AuthCallbackError{Reason: "unknown or reused state token"}
	}

	acc, err := m.store.Get(flow.shopID)
	if err != nil {
		return nil, err
	}

	rec, err := m.client.ExchangeCode(ctx, acc, code, flow.redirectURI)
	m.logAttempt(flow.shopID, models.TriggerExchange, err)
	if err != nil {
		return nil, err
	}

	acc.Token = rec
	acc.NeedsReauth = false
	if err := m.store.Upsert(acc.ShopID, acc); err != nil {
		return nil, err
	}
	log.Printf("✅ Authorized %s (token expires %s)", acc.ShopID, time.Unix(rec.ExpiresAt, 0).Format(time.RFC3339))
	return rec, nil
}

// ManualRefresh refreshes one account's token on operator request. The
// stored record is untouched when the refresh fails.
func (m *Manager) ManualRefresh(ctx context.Context, shopID string) (*store.TokenRecord, error) {
	acc, err := m.resolve(shopID)
	if err != nil {
		return nil, err
	}

	rec, err := m.client.Refresh(ctx, acc)
	if !errors.Is(err, cafe24.ErrNoRefreshToken) {
		m.logAttempt(acc.ShopID, models.TriggerManual, err)
	}
	if err != nil {
		return nil, err
	}

	acc.Token = rec
	acc.NeedsReauth = false
	if err := m.store.Upsert(acc.ShopID, acc); err != nil {
		return nil, err
	}
	log.Printf("✅ Refreshed token for %s (expires %s)", acc.ShopID, time.Unix(rec.ExpiresAt, 0).Format(time.RFC3339))
	return rec, nil
}

// Statuses returns the token summary for every stored account.
func (m *Manager) Statuses() ([]*Status, error) {
	st, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	out := make([]*Status, 0, len(st.Accounts))
	for _, acc := range st.Accounts {
		out = append(out, m.statusOf(acc))
	}
	return out, nil
}

// Status reports one account's token state (the current account when shopID
// is empty).
func (m *Manager) Status(shopID string) (*Status, error) {
	acc, err := m.resolve(shopID)
	if err != nil {
		return nil, err
	}
	return m.statusOf(acc), nil
}

func (m *Manager) statusOf(acc *store.Account) *Status {
	now := m.now()
	s := &Status{
		ShopID:      acc.ShopID,
		NeedsReauth: acc.NeedsReauth,
		State:       Classify(acc.Token, now).String(),
	}
	if acc.Token == nil || acc.Token.AccessToken == "" {
		return s
	}
	s.HasToken = true
	s.ExpiresAt = acc.Token.ExpiresAt
	s.IssuedAt = acc.Token.IssuedAt
	if remaining := acc.Token.ExpiresAt - now.Unix(); remaining > 0 {
		s.TimeRemaining = remaining
	} else {
		s.IsExpired = true
	}
	return s
}

// StartSweepLoop runs the scheduled refresh sweep on a fixed interval. The
// timer is the only trigger; there is no external one.
func (m *Manager) StartSweepLoop(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			m.RunSweep(context.Background())
		}
	}()
	log.Printf("🔄 Token refresh sweep started (interval: %s)", interval)
}

// RunSweep performs one pass over every account: classify, refresh where the
// policy demands it, persist successes. One account's failure never aborts
// the rest of the sweep.
func (m *Manager) RunSweep(ctx context.Context) {
	st, err := m.store.Load()
	if err != nil {
		log.Printf("⚠️ Sweep skipped, failed to load account store: %v", err)
		return
	}
	now := m.now()
	for shopID, acc := range st.Accounts {
		m.sweepAccount(ctx, shopID, acc, now)
	}
}

func (m *Manager) sweepAccount(ctx context.Context, shopID string, acc *store.Account, now time.Time) {
	state := Classify(acc.Token, now)
	if state == Missing || state == Fresh {
		return
	}

	rec, err := m.client.Refresh(ctx, acc)
	m.logAttempt(shopID, models.TriggerSweep, err)
	if err != nil {
		log.Printf("⚠️ Sweep refresh failed for %s (%s): %v", shopID, state, err)
		if state == Expired && !acc.NeedsReauth {
			// The refresh token itself appears dead: flag the account for
			// manual re-authorization. It stays in the sweep and is retried
			// every cycle until the operator re-authorizes or deletes it.
			acc.NeedsReauth = true
			if uerr := m.store.Upsert(shopID, acc); uerr != nil {
				log.Printf("⚠️ Failed to flag %s for re-auth: %v", shopID, uerr)
			}
		}
		return
	}

	acc.Token = rec
	acc.NeedsReauth = false
	if err := m.store.Upsert(shopID, acc); err != nil {
		log.Printf("⚠️ Failed to persist refreshed token for %s: %v", shopID, err)
		return
	}
	log.Printf("✅ Sweep refreshed %s (was %s, expires %s)", shopID, state, time.Unix(rec.ExpiresAt, 0).Format(time.RFC3339))
}

// logAttempt records one upstream exchange/refresh attempt in the history
// database, when one is configured.
func (m *Manager) logAttempt(shopID, trigger string, attemptErr error) {
	if m.gdb == nil {
		return
	}
	entry := &models.RefreshLog{
		ShopID:  shopID,
		Trigger: trigger,
		Outcome: models.OutcomeOK,
	}
	if attemptErr != nil {
		entry.Outcome = models.OutcomeFailed
		var xerr *cafe24.TokenExchangeError
		if errors.As(attemptErr, &xerr) {
			entry.Status = xerr.Status
			entry.Detail = util.TruncateDetail(xerr.Body, util.DefaultDetailMaxLen)
		} else {
			entry.Detail = util.TruncateDetail(attemptErr.Error(), util.DefaultDetailMaxLen)
		}
	}
	if err := db.RecordRefresh(m.gdb, entry); err != nil {
		log.Printf("⚠️ Failed to record refresh history for %s: %v", shopID, err)
	}
}

// FormatRemaining renders a remaining lifetime for display, e.g. "1h23m".
func FormatRemaining(seconds int64) string {
	if seconds <= 0 {
		return "expired"
	}
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%02dm", h, m)
}
