package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/kitwms/internal/db"
)

func TestRevokeToken(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	revoked, err := IsTokenRevoked(ctx, database, "jti-a")
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if revoked {
		t.Error("fresh token reported as revoked")
	}

	// Revoking twice is harmless.
	for i := 0; i < 2; i++ {
		if err := RevokeToken(ctx, database, "jti-a", exp); err != nil {
			t.Fatalf("RevokeToken #%d: %v", i+1, err)
		}
	}

	tests := []struct {
		jti  string
		want bool
	}{
		{"jti-a", true},
		{"jti-b", false},
		{"", false},
	}
	for _, tt := range tests {
		got, err := IsTokenRevoked(ctx, database, tt.jti)
		if err != nil {
			t.Fatalf("IsTokenRevoked(%q): %v", tt.jti, err)
		}
		if got != tt.want {
			t.Errorf("IsTokenRevoked(%q) = %v, want %v", tt.jti, got, tt.want)
		}
	}
}

func TestRevokeTokenDropsExpiredEntries(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if err := RevokeToken(ctx, database, "stale", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("RevokeToken stale: %v", err)
	}
	if err := RevokeToken(ctx, database, "live", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("RevokeToken live: %v", err)
	}

	var jtis []string
	if err := database.SelectContext(ctx, &jtis, `SELECT jti FROM revoked_tokens ORDER BY jti`); err != nil {
		t.Fatalf("listing revoked tokens: %v", err)
	}
	if len(jtis) != 1 || jtis[0] != "live" {
		t.Errorf("revoked tokens = %v, want [live]", jtis)
	}
}

func TestRevokeTokenStoresUTC(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// An expiry an hour ahead, written in a zone far behind UTC, must not
	// look expired to the cleanup run by a later revocation.
	behind := time.FixedZone("UTC-10", -10*60*60)
	if err := RevokeToken(ctx, database, "west", time.Now().Add(time.Hour).In(behind)); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}
	if err := RevokeToken(ctx, database, "other", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}

	revoked, err := IsTokenRevoked(ctx, database, "west")
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if !revoked {
		t.Error("token revoked with a non-UTC expiry was dropped early")
	}
}
