// Package session owns the actor identity lifecycle and is the single writer
// of the in-memory EntitlementStatus. It is the useSession() facade the rest
// of the application consumes: Snapshot, Login, Register, Logout, Refresh.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/PaulFidika/licensekit/attest"
	"github.com/PaulFidika/licensekit/classify"
	"github.com/PaulFidika/licensekit/core"
	"github.com/PaulFidika/licensekit/credential"
	"github.com/PaulFidika/licensekit/status"
)

// Snapshot is a point-in-time view of the session for listeners and callers.
type Snapshot struct {
	SessionID  uuid.UUID
	State      State
	Actor      *core.Actor
	Resolution status.Resolution
}

// Status is the live entitlement answer.
func (s Snapshot) Status() core.EntitlementStatus { return s.Resolution.Status }

// TransitionFunc observes state transitions. A refresh that completes while
// authenticated is delivered as Authenticated → Authenticated. Listeners run
// synchronously on the transitioning goroutine and must not call back into
// the controller.
type TransitionFunc func(from, to State, snap Snapshot)

type resolveCall struct {
	done chan struct{}
	res  status.Resolution
}

// Controller drives Anonymous → Authenticating → Authenticated →
// (Expired | LoggedOut) → Anonymous, resolving entitlement status on every
// identity transition.
type Controller struct {
	auth     core.AuthClient
	resolver *status.Resolver
	creds    *credential.Store
	cache    *attest.Cache
	prompts  *attest.PromptStore
	clock    core.Clock
	log      *logrus.Entry

	mu         sync.Mutex
	state      State
	actor      *core.Actor
	resolution status.Resolution
	// generation increments on every identity change; async continuations
	// re-check it before publishing so a slow response racing a fast
	// logout cannot resurrect cleared state.
	generation uint64
	inflight   *resolveCall
	sessionID  uuid.UUID
	listeners  []TransitionFunc
}

// Config wires a controller. AuthClient and Resolver are required; the rest
// default sensibly.
type Config struct {
	Auth        core.AuthClient
	Resolver    *status.Resolver
	Credentials *credential.Store
	Cache       *attest.Cache
	Prompts     *attest.PromptStore
	Clock       core.Clock
	Log         *logrus.Entry
}

// NewController builds a controller in the Anonymous state.
func NewController(cfg Config) *Controller {
	log := cfg.Log
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = logrus.NewEntry(l)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = core.RealClock{}
	}
	return &Controller{
		auth:      cfg.Auth,
		resolver:  cfg.Resolver,
		creds:     cfg.Credentials,
		cache:     cfg.Cache,
		prompts:   cfg.Prompts,
		clock:     clock,
		log:       log,
		sessionID: uuid.New(),
	}
}

// OnTransition registers a listener. Register before Boot.
func (c *Controller) OnTransition(fn TransitionFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Snapshot returns the current session view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		SessionID:  c.sessionID,
		State:      c.state,
		Actor:      c.actor,
		Resolution: c.resolution,
	}
}

func (c *Controller) transitionLocked(to State) (from State, snap Snapshot, listeners []TransitionFunc) {
	from = c.state
	c.state = to
	snap = c.snapshotLocked()
	listeners = c.listeners
	return
}

func (c *Controller) notify(from, to State, snap Snapshot, listeners []TransitionFunc) {
	c.log.WithFields(logrus.Fields{"from": from, "to": to}).Debug("session transition")
	for _, fn := range listeners {
		fn(from, to, snap)
	}
}

// Boot runs the process-start sequence: when a credential exists (and is not
// visibly expired), one silent who-am-I call decides between Authenticated
// and Anonymous. A stale credential is discarded.
func (c *Controller) Boot(ctx context.Context) error {
	token := ""
	if c.creds != nil {
		t, err := c.creds.Get(ctx)
		if err != nil {
			return fmt.Errorf("session: boot: %w", err)
		}
		token = t
	}
	if token == "" {
		return nil
	}
	if info, err := credential.Inspect(token); err == nil && info.Expired(c.clock.Now()) {
		c.log.Debug("stored credential already expired, discarding")
		_ = c.creds.Clear(ctx)
		return nil
	}
	actor, err := c.auth.CurrentActor(ctx)
	if err != nil || actor == nil {
		c.log.WithError(err).Info("silent sign-in failed, discarding stale credential")
		if c.creds != nil {
			_ = c.creds.Clear(ctx)
		}
		return nil
	}
	c.becomeAuthenticated(ctx, actor)
	return nil
}

// Login authenticates and, on success, resolves entitlement status exactly
// once. On failure the session returns to Anonymous and the error is
// surfaced for the caller to classify.
func (c *Controller) Login(ctx context.Context, creds core.Credentials) error {
	if err := c.beginAuthenticating(); err != nil {
		return err
	}
	actor, err := c.auth.Login(ctx, creds)
	if err != nil || actor == nil {
		c.abortAuthenticating()
		if err == nil {
			err = fmt.Errorf("session: login returned no actor")
		}
		return err
	}
	c.becomeAuthenticated(ctx, actor)
	return nil
}

// Register creates an account and continues like a login.
func (c *Controller) Register(ctx context.Context, reg core.Registration) error {
	if err := c.beginAuthenticating(); err != nil {
		return err
	}
	actor, err := c.auth.Register(ctx, reg)
	if err != nil || actor == nil {
		c.abortAuthenticating()
		if err == nil {
			err = fmt.Errorf("session: registration returned no actor")
		}
		return err
	}
	c.becomeAuthenticated(ctx, actor)
	return nil
}

func (c *Controller) beginAuthenticating() error {
	c.mu.Lock()
	if c.state == StateAuthenticating {
		c.mu.Unlock()
		return fmt.Errorf("session: authentication already in flight")
	}
	from, snap, listeners := c.transitionLocked(StateAuthenticating)
	c.mu.Unlock()
	c.notify(from, StateAuthenticating, snap, listeners)
	return nil
}

func (c *Controller) abortAuthenticating() {
	c.mu.Lock()
	from, snap, listeners := c.transitionLocked(StateAnonymous)
	c.mu.Unlock()
	c.notify(from, StateAnonymous, snap, listeners)
}

func (c *Controller) becomeAuthenticated(ctx context.Context, actor *core.Actor) {
	c.mu.Lock()
	c.actor = actor
	c.generation++
	gen := c.generation
	from, snap, listeners := c.transitionLocked(StateAuthenticated)
	c.mu.Unlock()

	res := c.resolve(ctx, actor, gen)

	c.mu.Lock()
	stale := c.generation != gen || c.state != StateAuthenticated
	c.mu.Unlock()
	if stale {
		// A logout or expiry won the race; the session this resolution
		// belonged to is gone and must not be announced.
		return
	}
	snap.Resolution = res
	c.notify(from, StateAuthenticated, snap, listeners)
}

// Refresh re-resolves entitlement status without changing identity (e.g.,
// after the actor completes an acquisition flow). Delivered to listeners as
// Authenticated → Authenticated.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateAuthenticated || c.actor == nil {
		c.mu.Unlock()
		return fmt.Errorf("session: refresh requires an authenticated session")
	}
	actor := c.actor
	gen := c.generation
	listeners := c.listeners
	c.mu.Unlock()

	res := c.resolve(ctx, actor, gen)

	c.mu.Lock()
	stale := c.generation != gen || c.state != StateAuthenticated
	snap := c.snapshotLocked()
	c.mu.Unlock()
	if stale {
		return nil
	}
	snap.Resolution = res
	c.notify(StateAuthenticated, StateAuthenticated, snap, listeners)
	return nil
}

// resolve serializes resolution: a second caller awaits the in-flight call
// instead of issuing a duplicate backend query. The result is published to
// the live session only when the generation still matches.
func (c *Controller) resolve(ctx context.Context, actor *core.Actor, gen uint64) status.Resolution {
	c.mu.Lock()
	if call := c.inflight; call != nil {
		c.mu.Unlock()
		<-call.done
		return call.res
	}
	call := &resolveCall{done: make(chan struct{})}
	c.inflight = call
	c.mu.Unlock()

	res := c.resolver.Resolve(ctx, actor)

	c.mu.Lock()
	call.res = res
	c.inflight = nil
	if c.generation == gen && c.state == StateAuthenticated {
		c.resolution = res
	}
	c.mu.Unlock()
	close(call.done)
	return res
}

// Logout is the full reset: credential, identity, status, attestation cache
// and prompt markers all cleared.
func (c *Controller) Logout(ctx context.Context) error {
	if err := c.auth.Logout(ctx); err != nil {
		// Best-effort on the backend side; local state clears regardless.
		c.log.WithError(err).Debug("backend logout failed")
	}
	if c.creds != nil {
		_ = c.creds.Clear(ctx)
	}
	if c.cache != nil {
		_ = c.cache.Clear(ctx)
	}
	if c.prompts != nil {
		_ = c.prompts.Clear(ctx)
	}
	c.reset(StateLoggedOut, false)
	return nil
}

// HandleAuthFailure reacts to a classified auth failure from any call site.
// A non-suppressed auth error while authenticated expires the session: the
// credential and identity are cleared, the attestation cache is kept.
func (c *Controller) HandleAuthFailure(ctx context.Context, out classify.Outcome) {
	if out.Category != classify.CategoryAuth || out.Suppressed {
		return
	}
	if !c.reset(StateExpired, true) {
		return
	}
	if c.creds != nil {
		_ = c.creds.Clear(ctx)
	}
}

// HandleEntitlementSignal reacts to a structured lacks-coverage failure from
// any call site by re-resolving status, which carries the answer to the
// prompt scheduler through the resulting transition. No toast is involved.
func (c *Controller) HandleEntitlementSignal(ctx context.Context, out classify.Outcome) {
	if out.Category != classify.CategoryEntitlement || out.Suppressed {
		return
	}
	if err := c.Refresh(ctx); err != nil {
		c.log.WithError(err).Debug("entitlement signal outside an authenticated session")
	}
}

// reset clears identity and status, passes through the given terminal state,
// then settles in Anonymous. With onlyAuthenticated set the whole reset is
// dropped unless the session still holds StateAuthenticated when the lock is
// taken, so two racing expiries collapse into one transition pair.
func (c *Controller) reset(via State, onlyAuthenticated bool) bool {
	c.mu.Lock()
	if onlyAuthenticated && c.state != StateAuthenticated {
		c.mu.Unlock()
		return false
	}
	c.actor = nil
	c.resolution = status.Resolution{}
	c.generation++
	from, snap, listeners := c.transitionLocked(via)
	c.mu.Unlock()
	c.notify(from, via, snap, listeners)

	c.mu.Lock()
	from2, snap2, listeners2 := c.transitionLocked(StateAnonymous)
	c.mu.Unlock()
	c.notify(from2, StateAnonymous, snap2, listeners2)
	return true
}
