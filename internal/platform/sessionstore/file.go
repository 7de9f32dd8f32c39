package sessionstore

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrSigningKeyRequired is returned when a FileStore is constructed without a
// signing key.
var ErrSigningKeyRequired = errors.New("sessionstore: signing key is required")

// FileStore persists session values as an HMAC-SHA256 signed JSON document.
// A payload whose signature does not verify is treated as absent rather than
// surfaced as an error, so a tampered or corrupted file degrades to a fresh
// session.
type FileStore struct {
	mu      sync.Mutex
	path    string
	signKey []byte
	values  map[string]string
}

// NewFileStore opens (or lazily creates) the signed session file at path.
func NewFileStore(path string, signingKey []byte) (*FileStore, error) {
	if len(signingKey) == 0 {
		return nil, ErrSigningKeyRequired
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sessionstore: path is required")
	}

	s := &FileStore{
		path:    path,
		signKey: signingKey,
		values:  make(map[string]string),
	}
	s.load()
	return s, nil
}

// Get implements the Store interface.
func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	return value, ok
}

// Set implements the Store interface, persisting synchronously.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.persist()
}

// Delete implements the Store interface, persisting synchronously.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return s.persist()
}

func (s *FileStore) load() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	parts := strings.Split(strings.TrimSpace(string(raw)), ".")
	if len(parts) != 2 {
		return
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return
	}
	mac := hmac.New(sha256.New, s.signKey)
	mac.Write(payload)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return
	}
	var values map[string]string
	if err := json.Unmarshal(payload, &values); err != nil {
		return
	}
	s.values = values
}

func (s *FileStore) persist() error {
	payload, err := json.Marshal(s.values)
	if err != nil {
		return err
	}
	mac := hmac.New(sha256.New, s.signKey)
	mac.Write(payload)
	token := base64.RawURLEncoding.EncodeToString(payload) + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(token), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
