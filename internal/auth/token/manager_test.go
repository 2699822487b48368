package token

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/c24tools/authhub/internal/auth/cafe24"
	"github.com/c24tools/authhub/internal/db"
	"github.com/c24tools/authhub/internal/db/models"
	"github.com/c24tools/authhub/internal/store"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type fixture struct {
	mgr       *Manager
	store     *store.Store
	storePath string
	gdb       *gorm.DB
	calls     *atomic.Int64
}

// newFixture builds a manager backed by a temp-dir store, an in-memory
// history db, and a fake token endpoint answering every grant.
func newFixture(t *testing.T, tokenStatus int, tokenBody string) *fixture {
	t.Helper()

	calls := &atomic.Int64{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(tokenStatus)
		fmt.Fprint(w, tokenBody)
	}))
	t.Cleanup(srv.Close)

	storePath := filepath.Join(t.TempDir(), "accounts.json")
	st := store.New(storePath, "", "")

	client := cafe24.NewTestClient(srv.URL)

	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := gdb.AutoMigrate(&models.RefreshLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return &fixture{
		mgr:       NewManager(st, client, gdb),
		store:     st,
		storePath: storePath,
		gdb:       gdb,
		calls:     calls,
	}
}

func seedAccount(t *testing.T, f *fixture, shopID string, rec *store.TokenRecord) {
	t.Helper()
	acc := &store.Account{
		ClientID:     "cid",
		ClientSecret: "cs",
		Token:        rec,
	}
	if err := f.store.Upsert(shopID, acc); err != nil {
		t.Fatalf("seed %s: %v", shopID, err)
	}
}

func TestSweep_RefreshesNearExpiryAccountOnce(t *testing.T) {
	f := newFixture(t, http.StatusOK, `{"access_token":"at-new","refresh_token":"rt-new","expires_in":7200}`)
	now := time.Now().Unix()
	seedAccount(t, f, "shopa", &store.TokenRecord{
		AccessToken:  "at-old",
		RefreshToken: "rt-old",
		ExpiresAt:    now + 100, // inside the refresh threshold
	})

	f.mgr.RunSweep(context.Background())

	if got := f.calls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 refresh call, got %d", got)
	}
	acc, err := f.store.Get("shopa")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if acc.Token.AccessToken != "at-new" {
		t.Fatalf("token not replaced: %+v", acc.Token)
	}
	if acc.Token.ExpiresAt <= now+100 {
		t.Fatalf("new expiry %d not beyond old %d", acc.Token.ExpiresAt, now+100)
	}

	logs, err := db.RecentRefreshes(f.gdb, "shopa", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(logs) != 1 || logs[0].Outcome != models.OutcomeOK || logs[0].Trigger != models.TriggerSweep {
		t.Fatalf("unexpected history: %+v", logs)
	}
}

func TestSweep_AllFreshIsIdempotent(t *testing.T) {
	f := newFixture(t, http.StatusOK, `{"access_token":"zzz"}`)
	now := time.Now().Unix()
	seedAccount(t, f, "shopa", &store.TokenRecord{AccessToken: "at", RefreshToken: "rt", ExpiresAt: now + 7200})
	seedAccount(t, f, "shopb", &store.TokenRecord{AccessToken: "at", RefreshToken: "rt", ExpiresAt: now + 86400})

	before, err := os.ReadFile(f.storePath)
	if err != nil {
		t.Fatalf("read store: %v", err)
	}

	f.mgr.RunSweep(context.Background())
	f.mgr.RunSweep(context.Background())

	if got := f.calls.Load(); got != 0 {
		t.Fatalf("fresh accounts must not be refreshed, got %d calls", got)
	}
	after, err := os.ReadFile(f.storePath)
	if err != nil {
		t.Fatalf("read store: %v", err)
	}
	if string(before) != string(after) {
		t.Fatal("persisted state changed across a no-op sweep")
	}
}

func TestSweep_ExpiredFailureFlagsReauthAndContinues(t *testing.T) {
	f := newFixture(t, http.StatusBadRequest, `{"error":"invalid_grant"}`)
	now := time.Now().Unix()
	seedAccount(t, f, "shopa", &store.TokenRecord{AccessToken: "at", RefreshToken: "rt-dead", ExpiresAt: now - 10})
	seedAccount(t, f, "shopb", &store.TokenRecord{AccessToken: "at", RefreshToken: "rt-dead", ExpiresAt: now + 100})

	f.mgr.RunSweep(context.Background())

	// Both accounts were attempted despite both failing.
	if got := f.calls.Load(); got != 2 {
		t.Fatalf("expected 2 refresh attempts, got %d", got)
	}

	// Expired account is flagged for re-auth, its stale token untouched.
	accA, _ := f.store.Get("shopa")
	if !accA.NeedsReauth {
		t.Fatal("expired account not flagged for re-auth")
	}
	if accA.Token.AccessToken != "at" {
		t.Fatalf("stale token replaced on failure: %+v", accA.Token)
	}

	// NeedsRefresh account keeps its still-valid token and no flag.
	accB, _ := f.store.Get("shopb")
	if accB.NeedsReauth {
		t.Fatal("needs-refresh account wrongly flagged")
	}
	if accB.Token.ExpiresAt != now+100 {
		t.Fatalf("still-valid token modified: %+v", accB.Token)
	}

	logs, _ := db.RecentRefreshes(f.gdb, "", 10)
	if len(logs) != 2 {
		t.Fatalf("expected 2 history rows, got %d", len(logs))
	}
	for _, l := range logs {
		if l.Outcome != models.OutcomeFailed || l.Status != http.StatusBadRequest {
			t.Fatalf("unexpected history row: %+v", l)
		}
	}
}

func TestManualRefresh_NoRefreshTokenLeavesStoreUnchanged(t *testing.T) {
	f := newFixture(t, http.StatusOK, `{"access_token":"never"}`)
	seedAccount(t, f, "shopa", &store.TokenRecord{AccessToken: "at-only"})

	before, _ := os.ReadFile(f.storePath)

	_, err := f.mgr.ManualRefresh(context.Background(), "shopa")
	if !errors.Is(err, cafe24.ErrNoRefreshToken) {
		t.Fatalf("expected ErrNoRefreshToken, got %v", err)
	}
	if f.calls.Load() != 0 {
		t.Fatal("no upstream call should happen without a refresh token")
	}

	after, _ := os.ReadFile(f.storePath)
	if string(before) != string(after) {
		t.Fatal("store changed on failed refresh")
	}
}

func TestManualRefresh_UpstreamErrorKeepsExistingToken(t *testing.T) {
	f := newFixture(t, http.StatusBadRequest, `{"error":"invalid_grant"}`)
	now := time.Now().Unix()
	seedAccount(t, f, "shopa", &store.TokenRecord{AccessToken: "at", RefreshToken: "rt", ExpiresAt: now + 100})

	_, err := f.mgr.ManualRefresh(context.Background(), "shopa")
	var xerr *cafe24.TokenExchangeError
	if !errors.As(err, &xerr) || xerr.Status != http.StatusBadRequest {
		t.Fatalf("expected TokenExchangeError{400}, got %v", err)
	}

	acc, _ := f.store.Get("shopa")
	if acc.Token.AccessToken != "at" || acc.Token.ExpiresAt != now+100 {
		t.Fatalf("existing record modified: %+v", acc.Token)
	}
}

func TestRefreshRoundTrip_NewRecordOutlivesNow(t *testing.T) {
	// Feeding a prior successful response's refresh token into the next
	// refresh must yield a record expiring in the future.
	f := newFixture(t, http.StatusOK, `{"access_token":"at-2","refresh_token":"rt-2","expires_in":7200}`)
	now := time.Now().Unix()
	seedAccount(t, f, "shopa", &store.TokenRecord{AccessToken: "at-1", RefreshToken: "rt-1", ExpiresAt: now + 100})

	rec1, err := f.mgr.ManualRefresh(context.Background(), "shopa")
	if err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	if rec1.RefreshToken != "rt-2" {
		t.Fatalf("rotated refresh token not stored: %+v", rec1)
	}

	rec2, err := f.mgr.ManualRefresh(context.Background(), "shopa")
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if rec2.ExpiresAt <= time.Now().Unix() {
		t.Fatalf("round-trip record already expired: %d", rec2.ExpiresAt)
	}
}

func TestStartAuth_ConfigIncomplete(t *testing.T) {
	f := newFixture(t, http.StatusOK, `{}`)
	if err := f.store.Upsert("shopa", &store.Account{}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	_, err := f.mgr.StartAuth("shopa", "http://localhost:5001/api/auth/callback")
	if !errors.Is(err, ErrConfigIncomplete) {
		t.Fatalf("expected ErrConfigIncomplete, got %v", err)
	}
}

func TestAuthFlow_StateValidatedAndSingleUse(t *testing.T) {
	f := newFixture(t, http.StatusOK, `{"access_token":"at-1","refresh_token":"rt-1","expires_in":7200}`)
	seedAccount(t, f, "shopa", nil)

	authURL, err := f.mgr.StartAuth("shopa", "http://localhost:5001/api/auth/callback")
	if err != nil {
		t.Fatalf("start auth: %v", err)
	}
	state := stateParam(t, authURL)

	// Wrong state is rejected outright.
	var cbErr *AuthCallbackError
	if _, err := f.mgr.CompleteAuth(context.Background(), "bogus", "code", ""); !errors.As(err, &cbErr) {
		t.Fatalf("expected AuthCallbackError for bad state, got %v", err)
	}

	// Upstream error parameter wins over everything.
	if _, err := f.mgr.CompleteAuth(context.Background(), state, "code", "access_denied"); !errors.As(err, &cbErr) {
		t.Fatalf("expected AuthCallbackError for upstream error, got %v", err)
	}

	// The proper callback succeeds and persists the token.
	rec, err := f.mgr.CompleteAuth(context.Background(), state, "auth-code", "")
	if err != nil {
		t.Fatalf("complete auth: %v", err)
	}
	if rec.AccessToken != "at-1" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	acc, _ := f.store.Get("shopa")
	if acc.Token == nil || acc.Token.AccessToken != "at-1" {
		t.Fatalf("token not persisted: %+v", acc.Token)
	}

	// The state is single-use.
	if _, err := f.mgr.CompleteAuth(context.Background(), state, "auth-code", ""); !errors.As(err, &cbErr) {
		t.Fatalf("expected AuthCallbackError on state reuse, got %v", err)
	}
}

func TestStatus_ReportsRemainingLifetime(t *testing.T) {
	f := newFixture(t, http.StatusOK, `{}`)
	now := time.Now().Unix()
	seedAccount(t, f, "shopa", &store.TokenRecord{AccessToken: "at", RefreshToken: "rt", ExpiresAt: now + 5000, IssuedAt: now - 2200})

	s, err := f.mgr.Status("shopa")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !s.HasToken || s.IsExpired {
		t.Fatalf("unexpected status: %+v", s)
	}
	if s.TimeRemaining < 4990 || s.TimeRemaining > 5000 {
		t.Fatalf("time remaining off: %d", s.TimeRemaining)
	}
	if s.State != "fresh" {
		t.Fatalf("expected fresh, got %s", s.State)
	}

	// Expired token.
	seedAccount(t, f, "shopb", &store.TokenRecord{AccessToken: "at", RefreshToken: "rt", ExpiresAt: now - 10})
	s, err = f.mgr.Status("shopb")
	if err != nil {
		t.Fatalf("status shopb: %v", err)
	}
	if !s.IsExpired || s.TimeRemaining != 0 {
		t.Fatalf("expected expired with zero remaining: %+v", s)
	}

	// No token at all.
	seedAccount(t, f, "shopc", nil)
	s, err = f.mgr.Status("shopc")
	if err != nil {
		t.Fatalf("status shopc: %v", err)
	}
	if s.HasToken || s.State != "missing" {
		t.Fatalf("expected missing: %+v", s)
	}
}

func TestFormatRemaining(t *testing.T) {
	if got := FormatRemaining(5000); got != "1h23m" {
		t.Fatalf("expected 1h23m, got %s", got)
	}
	if got := FormatRemaining(-5); got != "expired" {
		t.Fatalf("expected expired, got %s", got)
	}
}

func stateParam(t *testing.T, rawURL string) string {
	t.Helper()
	idx := strings.Index(rawURL, "state=")
	if idx == -1 {
		t.Fatalf("no state in %s", rawURL)
	}
	rest := rawURL[idx+len("state="):]
	if amp := strings.IndexByte(rest, '&'); amp != -1 {
		rest = rest[:amp]
	}
	return rest
}
