package auth

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/deshimart/storefront-go/internal/platform/sessionstore"
)

// expirySkew keeps a token that is about to lapse from counting as a live
// session mid-operation.
const expirySkew = 30 * time.Second

var errStoreRequired = errors.New("auth: session store is required")

// Profile is the locally cached snapshot of the signed-in user.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Provider exposes the read-only authentication state the cart core consumes:
// the current bearer token and whether the actor has a live session. Token
// issuance itself belongs to the login flow, not this package.
type Provider struct {
	store sessionstore.Store
	now   func() time.Time
}

// NewProvider constructs a Provider over the session store.
func NewProvider(store sessionstore.Store) (*Provider, error) {
	if store == nil {
		return nil, errStoreRequired
	}
	return &Provider{store: store, now: time.Now}, nil
}

// Token returns the persisted access token, or empty when absent.
func (p *Provider) Token() string {
	token, _ := p.store.Get(sessionstore.KeyAccessToken)
	return strings.TrimSpace(token)
}

// IsAuthenticated reports whether a usable access token is present. A token
// whose exp claim has lapsed does not count; the signature is deliberately
// not verified here since only the server can vouch for it.
func (p *Provider) IsAuthenticated() bool {
	token := p.Token()
	if token == "" {
		return false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// Opaque (non-JWT) tokens are taken at face value.
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return p.now().Add(expirySkew).Before(exp.Time)
}

// Profile returns the cached user snapshot when one is persisted.
func (p *Provider) Profile() (Profile, bool) {
	raw, ok := p.store.Get(sessionstore.KeyUserProfile)
	if !ok || strings.TrimSpace(raw) == "" {
		return Profile{}, false
	}
	var profile Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return Profile{}, false
	}
	return profile, true
}

// Logout clears the persisted credentials, the profile snapshot, and the
// guest-mode flag. Guest-flag invalidation lives here so the cart core never
// has to know about logout.
func (p *Provider) Logout() error {
	for _, key := range []string{
		sessionstore.KeyAccessToken,
		sessionstore.KeyRefreshToken,
		sessionstore.KeyUserProfile,
		sessionstore.KeyGuestMode,
	} {
		if err := p.store.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
