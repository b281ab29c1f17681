package auth

import (
	"testing"
	"time"
)

func testManager() *Manager {
	return &Manager{
		Secret:     []byte("test-secret"),
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
		Issuer:     "dhermica-backend",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := testManager()

	token, err := m.NewAccessToken("admin")
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	claims, err := m.Parse(token, KindAccess)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.Role != "admin" || claims.Kind != KindAccess {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRefreshTokenRejectedAsAccess(t *testing.T) {
	m := testManager()

	token, err := m.NewRefreshToken("admin")
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	if _, err := m.Parse(token, KindAccess); err == nil {
		t.Fatalf("a refresh token must not pass as an access token")
	}
	if _, err := m.Parse(token, KindRefresh); err != nil {
		t.Fatalf("the same token must parse under its own kind: %v", err)
	}
}

func TestParseRejectsForeignSecret(t *testing.T) {
	m := testManager()
	token, err := m.NewAccessToken("admin")
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	other := testManager()
	other.Secret = []byte("another-secret")
	if _, err := other.Parse(token, KindAccess); err == nil {
		t.Fatalf("token signed with a different secret must not verify")
	}
}

func TestParseRejectsForeignIssuer(t *testing.T) {
	m := testManager()
	token, err := m.NewAccessToken("admin")
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	other := testManager()
	other.Issuer = "someone-else"
	if _, err := other.Parse(token, KindAccess); err == nil {
		t.Fatalf("token from a different issuer must not verify")
	}
}
