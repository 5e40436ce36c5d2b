// Package attest persists the last known valid entitlement proof on the
// device, and re-validates it against the backend when the backend claims
// the actor has no coverage. This is the fallback that keeps a short backend
// glitch from nagging an already-entitled user.
package attest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/PaulFidika/licensekit/core"
)

// Cache stores a single Attestation in a device-scoped core.Store.
type Cache struct {
	store core.Store
	clock core.Clock
	log   *logrus.Entry
	key   *[32]byte
}

// Option configures a Cache.
type Option func(*Cache)

// WithSealKey enables secretbox sealing of the stored attestation.
func WithSealKey(key *[32]byte) Option {
	return func(c *Cache) { c.key = key }
}

// WithClock overrides the wall clock (tests).
func WithClock(clock core.Clock) Option {
	return func(c *Cache) { c.clock = clock }
}

// WithLogger attaches a logger.
func WithLogger(log *logrus.Entry) Option {
	return func(c *Cache) { c.log = log }
}

// NewCache builds an attestation cache over the given store.
func NewCache(store core.Store, opts ...Option) *Cache {
	c := &Cache{store: store, clock: core.RealClock{}}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		c.log = logrus.NewEntry(l)
	}
	return c
}

// Get returns the cached attestation, or nil when none is stored or the
// stored value cannot be decoded (a corrupt entry is treated as absent).
func (c *Cache) Get(ctx context.Context) (*core.Attestation, error) {
	raw, ok, err := c.store.Get(ctx, core.KeyAttestation)
	if err != nil {
		return nil, fmt.Errorf("attest: read: %w", err)
	}
	if !ok {
		return nil, nil
	}
	if c.key != nil {
		raw, err = unseal(c.key, raw)
		if err != nil {
			c.log.WithError(err).Warn("discarding undecodable attestation")
			return nil, nil
		}
	}
	var a core.Attestation
	if err := json.Unmarshal(raw, &a); err != nil {
		c.log.WithError(err).Warn("discarding undecodable attestation")
		return nil, nil
	}
	if a.Code == "" {
		return nil, nil
	}
	return &a, nil
}

// GetFor returns the cached attestation only when it belongs to ownerEmail.
// An attestation cached by a different account on a shared device must never
// satisfy another actor's status.
func (c *Cache) GetFor(ctx context.Context, ownerEmail string) (*core.Attestation, error) {
	a, err := c.Get(ctx)
	if err != nil || a == nil {
		return nil, err
	}
	if !strings.EqualFold(a.OwnerEmail, ownerEmail) {
		c.log.WithField("fingerprint", Fingerprint(a.Code, a.OwnerEmail)).
			Debug("cached attestation belongs to a different owner")
		return nil, nil
	}
	return a, nil
}

// Put stores the attestation, replacing any previous one.
func (c *Cache) Put(ctx context.Context, a core.Attestation) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("attest: encode: %w", err)
	}
	if c.key != nil {
		raw, err = seal(c.key, raw)
		if err != nil {
			return fmt.Errorf("attest: seal: %w", err)
		}
	}
	if err := c.store.Set(ctx, core.KeyAttestation, raw); err != nil {
		return fmt.Errorf("attest: write: %w", err)
	}
	return nil
}

// Clear removes the attestation. Called on explicit logout and when the
// backend rejects the code during recovery.
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.store.Del(ctx, core.KeyAttestation); err != nil {
		return fmt.Errorf("attest: clear: %w", err)
	}
	return nil
}

// TryRecover re-submits the cached code for re-validation after the backend
// reported no coverage for actor. Returns true when the backend accepted the
// code (and the attestation timestamp was refreshed). A rejected code clears
// the cache; a transport failure leaves it untouched.
func (c *Cache) TryRecover(ctx context.Context, sc core.StatusClient, actor *core.Actor) (bool, error) {
	if actor == nil {
		return false, nil
	}
	a, err := c.GetFor(ctx, actor.Email)
	if err != nil || a == nil {
		return false, err
	}
	fp := Fingerprint(a.Code, a.OwnerEmail)
	accepted, err := sc.Reactivate(ctx, a.Code)
	if err != nil {
		return false, fmt.Errorf("attest: reactivate: %w", err)
	}
	if !accepted {
		c.log.WithField("fingerprint", fp).Info("cached license rejected by backend, clearing")
		if err := c.Clear(ctx); err != nil {
			return false, err
		}
		return false, nil
	}
	a.ActivatedAt = c.clock.Now()
	if err := c.Put(ctx, *a); err != nil {
		return false, err
	}
	c.log.WithField("fingerprint", fp).Info("cached license re-validated")
	return true, nil
}
