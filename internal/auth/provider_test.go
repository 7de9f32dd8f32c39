package auth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/deshimart/storefront-go/internal/platform/sessionstore"
)

// unsignedJWT builds a structurally valid JWT with the given exp claim. The
// signature is junk; the provider never verifies it.
func unsignedJWT(t *testing.T, exp time.Time) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	claims, err := json.Marshal(map[string]any{"exp": exp.Unix(), "sub": "user-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	payload := base64.RawURLEncoding.EncodeToString(claims)
	return fmt.Sprintf("%s.%s.junk", header, payload)
}

func TestProviderRequiresStore(t *testing.T) {
	if _, err := NewProvider(nil); err == nil {
		t.Fatalf("expected error for nil store")
	}
}

func TestIsAuthenticatedWithLiveToken(t *testing.T) {
	store := sessionstore.NewMemoryStore()
	provider, err := NewProvider(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if provider.IsAuthenticated() {
		t.Fatalf("expected unauthenticated with empty store")
	}

	_ = store.Set(sessionstore.KeyAccessToken, unsignedJWT(t, time.Now().Add(time.Hour)))
	if !provider.IsAuthenticated() {
		t.Fatalf("expected authenticated with live token")
	}
}

func TestIsAuthenticatedRejectsExpiredToken(t *testing.T) {
	store := sessionstore.NewMemoryStore()
	provider, err := NewProvider(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_ = store.Set(sessionstore.KeyAccessToken, unsignedJWT(t, time.Now().Add(-time.Minute)))
	if provider.IsAuthenticated() {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestIsAuthenticatedAcceptsOpaqueToken(t *testing.T) {
	store := sessionstore.NewMemoryStore()
	provider, err := NewProvider(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_ = store.Set(sessionstore.KeyAccessToken, "opaque-session-token")
	if !provider.IsAuthenticated() {
		t.Fatalf("expected opaque token accepted at face value")
	}
}

func TestLogoutClearsCredentialsAndGuestFlag(t *testing.T) {
	store := sessionstore.NewMemoryStore()
	provider, err := NewProvider(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_ = store.Set(sessionstore.KeyAccessToken, "tok")
	_ = store.Set(sessionstore.KeyRefreshToken, "ref")
	_ = store.Set(sessionstore.KeyGuestMode, "true")
	_ = store.Set(sessionstore.KeyUserProfile, `{"name":"A"}`)
	_ = store.Set(sessionstore.KeyCartID, "cart-keep")

	if err := provider.Logout(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, key := range []string{
		sessionstore.KeyAccessToken,
		sessionstore.KeyRefreshToken,
		sessionstore.KeyGuestMode,
		sessionstore.KeyUserProfile,
	} {
		if _, ok := store.Get(key); ok {
			t.Fatalf("expected %s cleared on logout", key)
		}
	}
	if _, ok := store.Get(sessionstore.KeyCartID); !ok {
		t.Fatalf("cart id must survive logout")
	}
}

func TestProfileRoundTrip(t *testing.T) {
	store := sessionstore.NewMemoryStore()
	provider, err := NewProvider(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := provider.Profile(); ok {
		t.Fatalf("expected no profile")
	}
	_ = store.Set(sessionstore.KeyUserProfile, `{"name":"Rahim","email":"r@example.com","phone":"01700000000"}`)
	profile, ok := provider.Profile()
	if !ok {
		t.Fatalf("expected profile")
	}
	if profile.Name != "Rahim" || profile.Email != "r@example.com" {
		t.Fatalf("unexpected profile %+v", profile)
	}
}
