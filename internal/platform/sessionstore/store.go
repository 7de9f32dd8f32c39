package sessionstore

import "github.com/google/uuid"

// Keys the storefront core persists. Nothing else is written through the
// store, and every key is idempotently re-derivable from the server or from a
// fresh login.
const (
	KeyCartID       = "cart_id"
	KeyGuestMode    = "guest_mode"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUserProfile  = "user_profile"
	KeyDeviceID     = "device_id"
)

// Store is the key/value persistence capability injected into the core. The
// core is agnostic to how the backing storage encrypts or signs values.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// EnsureDeviceID returns the durable device identifier, minting and
// persisting one on first use.
func EnsureDeviceID(store Store) (string, error) {
	if id, ok := store.Get(KeyDeviceID); ok && id != "" {
		return id, nil
	}
	id := uuid.NewString()
	if err := store.Set(KeyDeviceID, id); err != nil {
		return "", err
	}
	return id, nil
}
