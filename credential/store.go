// Package credential holds the transport credential (bearer token) in the
// device store and answers local questions about it: is one present, is it
// already expired, does it verify against the issuer's keys.
package credential

import (
	"context"
	"fmt"

	"github.com/PaulFidika/licensekit/core"
)

// Store persists the bearer token across reloads.
type Store struct {
	store core.Store
}

// NewStore binds the credential store to a device-scoped core.Store.
func NewStore(store core.Store) *Store {
	return &Store{store: store}
}

// Get returns the stored token, or "" when none exists.
func (s *Store) Get(ctx context.Context) (string, error) {
	raw, ok, err := s.store.Get(ctx, core.KeyCredential)
	if err != nil {
		return "", fmt.Errorf("credential: read: %w", err)
	}
	if !ok {
		return "", nil
	}
	return string(raw), nil
}

// Set stores the token.
func (s *Store) Set(ctx context.Context, token string) error {
	if err := s.store.Set(ctx, core.KeyCredential, []byte(token)); err != nil {
		return fmt.Errorf("credential: write: %w", err)
	}
	return nil
}

// Clear removes the token.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.store.Del(ctx, core.KeyCredential); err != nil {
		return fmt.Errorf("credential: clear: %w", err)
	}
	return nil
}
