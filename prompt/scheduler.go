// Package prompt decides whether and when to interrupt the user with an
// entitlement-acquisition prompt. Two policies exist, selected by actor
// state: a local timer policy for guests (at most once per rolling day) and
// a server-driven policy for authenticated actors without coverage.
package prompt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/PaulFidika/licensekit/attest"
	"github.com/PaulFidika/licensekit/core"
	"github.com/PaulFidika/licensekit/session"
)

// Kind says which policy produced a visible prompt.
type Kind string

const (
	// KindGuest offers "log in or continue as guest".
	KindGuest Kind = "guest"
	// KindMember offers the acquisition flow to a covered-less account.
	KindMember Kind = "member"
)

// Config tunes the delays. Zero values take the defaults.
type Config struct {
	// GuestDelay is the active-session time before a guest is prompted.
	GuestDelay time.Duration
	// MemberDelay is the wait used for the server's "delayed" variant.
	MemberDelay time.Duration
}

func (c Config) defaulted() Config {
	if c.GuestDelay <= 0 {
		c.GuestDelay = 90 * time.Second
	}
	if c.MemberDelay <= 0 {
		c.MemberDelay = 2 * time.Minute
	}
	return c
}

// Scheduler is the usePrompt() facade: Visible and Dismiss, with all timer
// bookkeeping internal. Attach it to a session controller before Boot.
type Scheduler struct {
	cfg     Config
	status  core.StatusClient
	prompts *attest.PromptStore
	clock   core.Clock
	log     *logrus.Entry

	mu      sync.Mutex
	timer   core.Timer
	visible bool
	kind    Kind
	variant core.PromptVariant
	// generation invalidates pending timers and their callbacks whenever
	// the session moves to a state that voids their premise.
	generation uint64
}

// NewScheduler builds a scheduler. Clock and log may be nil.
func NewScheduler(cfg Config, sc core.StatusClient, prompts *attest.PromptStore, clock core.Clock, log *logrus.Entry) *Scheduler {
	if clock == nil {
		clock = core.RealClock{}
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = logrus.NewEntry(l)
	}
	return &Scheduler{
		cfg:     cfg.defaulted(),
		status:  sc,
		prompts: prompts,
		clock:   clock,
		log:     log,
	}
}

// Attach subscribes to session transitions and arms the guest policy if the
// session is currently anonymous.
func (s *Scheduler) Attach(ctrl *session.Controller) {
	ctrl.OnTransition(s.onTransition)
	if snap := ctrl.Snapshot(); snap.State == session.StateAnonymous {
		s.armGuest(context.Background())
	}
}

// Visible reports whether a prompt should be on screen, and which one.
func (s *Scheduler) Visible() (bool, Kind, core.PromptVariant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible, s.kind, s.variant
}

// Dismiss hides the prompt and records the outcome: guest dismissals persist
// the local marker, member dismissals acknowledge the shown variant to the
// backend exactly once.
func (s *Scheduler) Dismiss(ctx context.Context) error {
	s.mu.Lock()
	if !s.visible {
		s.mu.Unlock()
		return nil
	}
	kind := s.kind
	variant := s.variant
	s.visible = false
	s.kind = ""
	s.variant = ""
	s.mu.Unlock()

	switch kind {
	case KindGuest:
		if err := s.prompts.MarkShown(ctx); err != nil {
			return fmt.Errorf("prompt: mark shown: %w", err)
		}
	case KindMember:
		if err := s.status.AcknowledgePrompt(ctx, variant); err != nil {
			return fmt.Errorf("prompt: acknowledge: %w", err)
		}
	}
	return nil
}

// onTransition cancels anything pending (its premise may be gone) and then
// applies the policy for the new state.
func (s *Scheduler) onTransition(from, to session.State, snap session.Snapshot) {
	s.cancel()
	ctx := context.Background()
	switch to {
	case session.StateAnonymous:
		s.armGuest(ctx)
	case session.StateAuthenticated:
		// Runs on refresh transitions too: a still-uncovered session keeps
		// the member policy alive, and evaluateMember bows out on coverage.
		s.evaluateMember(ctx, snap)
	}
}

// cancel stops the pending timer and hides any visible prompt whose premise
// a transition just invalidated.
func (s *Scheduler) cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.visible = false
	s.kind = ""
	s.variant = ""
}

// armGuest starts the one-shot guest timer unless the rolling-day marker
// says the prompt was already shown.
func (s *Scheduler) armGuest(ctx context.Context) {
	st, err := s.prompts.Get(ctx)
	if err != nil {
		s.log.WithError(err).Debug("guest prompt state unreadable")
		return
	}
	if st.Shown {
		return
	}
	s.mu.Lock()
	gen := s.generation
	s.timer = s.clock.AfterFunc(s.cfg.GuestDelay, func() { s.fire(gen, KindGuest, "") })
	s.mu.Unlock()
}

// evaluateMember runs the server-driven policy after the first post-login
// resolution. Decision failures are absorbed: a broken prompt endpoint must
// never surface as an error toast.
func (s *Scheduler) evaluateMember(ctx context.Context, snap session.Snapshot) {
	if snap.Status().Entitled() {
		return
	}
	dec, err := s.status.GetPromptDecision(ctx)
	if err != nil {
		s.log.WithError(err).Debug("prompt decision unavailable")
		return
	}
	if !dec.ShouldShow {
		return
	}
	switch dec.Variant {
	case core.VariantImmediate:
		s.mu.Lock()
		s.show(KindMember, dec.Variant)
		s.mu.Unlock()
	case core.VariantDelayed:
		s.mu.Lock()
		gen := s.generation
		s.timer = s.clock.AfterFunc(s.cfg.MemberDelay, func() { s.fire(gen, KindMember, dec.Variant) })
		s.mu.Unlock()
	default:
		s.log.WithField("variant", dec.Variant).Debug("unknown prompt variant ignored")
	}
}

// fire is the timer callback. It re-checks the generation so a timer that
// lost the race against a state transition fires into the void.
func (s *Scheduler) fire(gen uint64, kind Kind, variant core.PromptVariant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}
	s.timer = nil
	s.show(kind, variant)
}

// show must be called with s.mu held.
func (s *Scheduler) show(kind Kind, variant core.PromptVariant) {
	s.visible = true
	s.kind = kind
	s.variant = variant
	s.log.WithFields(logrus.Fields{"kind": kind, "variant": variant}).Info("acquisition prompt requested")
}
