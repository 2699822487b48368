package token

import (
	"testing"
	"time"

	"github.com/c24tools/authhub/internal/store"
)

func TestClassify(t *testing.T) {
	now := time.Unix(1700000000, 0)
	rec := func(delta int64) *store.TokenRecord {
		return &store.TokenRecord{
			AccessToken:  "at",
			RefreshToken: "rt",
			ExpiresAt:    now.Unix() + delta,
		}
	}

	tests := []struct {
		name string
		rec  *store.TokenRecord
		want State
	}{
		{name: "nil record", rec: nil, want: Missing},
		{name: "no refresh token", rec: &store.TokenRecord{AccessToken: "at", ExpiresAt: now.Unix() + 7200}, want: Missing},
		{name: "well before threshold", rec: rec(7200), want: Fresh},
		{name: "exactly at threshold", rec: rec(3600), want: Fresh},
		{name: "just inside threshold", rec: rec(3599), want: NeedsRefresh},
		{name: "one second left", rec: rec(1), want: NeedsRefresh},
		{name: "expires now", rec: rec(0), want: Expired},
		{name: "long expired", rec: rec(-86400), want: Expired},
		{name: "coerced garbage expiry", rec: rec(-now.Unix()), want: Expired}, // expires_at == 0
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.rec, now); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestClassify_FreshIffOutsideThreshold(t *testing.T) {
	now := time.Unix(1700000000, 0)
	for delta := int64(3595); delta <= 3605; delta++ {
		rec := &store.TokenRecord{AccessToken: "at", RefreshToken: "rt", ExpiresAt: now.Unix() + delta}
		got := Classify(rec, now)
		if delta >= 3600 && got != Fresh {
			t.Fatalf("delta=%d: expected Fresh, got %s", delta, got)
		}
		if delta < 3600 && got == Fresh {
			t.Fatalf("delta=%d: expected not Fresh, got %s", delta, got)
		}
	}
}
