// Package auth implements the bearer-token allow-list that fronts the API.
package auth

import (
	"strings"
	"sync/atomic"

	"github.com/AylerH/DB-GPT/internal/core/domain"
)

// KeySet is an immutable allow-list built once from configuration.
type KeySet struct {
	keys map[string]struct{}
}

// NewKeySet builds a set from already-parsed keys. Empty entries are ignored.
func NewKeySet(keys []string) *KeySet {
	ks := &KeySet{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		if k == "" {
			continue
		}
		ks.keys[k] = struct{}{}
	}
	return ks
}

func (ks *KeySet) Len() int {
	if ks == nil {
		return 0
	}
	return len(ks.keys)
}

func (ks *KeySet) Contains(token string) bool {
	if ks == nil {
		return false
	}
	_, ok := ks.keys[token]
	return ok
}

// Gate checks presented tokens against the current KeySet. The set is swapped
// whole on reload so concurrent checks never see a partial update.
type Gate struct {
	current atomic.Pointer[KeySet]
}

func NewGate(keys []string) *Gate {
	g := &Gate{}
	g.Update(keys)
	return g
}

// Update replaces the allow-list.
func (g *Gate) Update(keys []string) {
	g.current.Store(NewKeySet(keys))
}

// Enabled reports whether any key is configured.
func (g *Gate) Enabled() bool {
	return g.current.Load().Len() > 0
}

// Check validates token. With no configured keys every caller passes and the
// returned token is empty. Otherwise token must be present and match a key
// byte for byte, and it is returned on success.
func (g *Gate) Check(token *string) (string, error) {
	ks := g.current.Load()
	if ks.Len() == 0 {
		return "", nil
	}
	if token == nil || !ks.Contains(*token) {
		return "", domain.ErrInvalidKey
	}
	return *token, nil
}

// BearerToken extracts the credential of an "Authorization: Bearer <token>"
// header. It returns nil when the header is absent or uses another scheme.
// The credential is returned as sent, surrounding whitespace included.
func BearerToken(header string) *string {
	scheme, credentials, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || credentials == "" {
		return nil
	}
	return &credentials
}
