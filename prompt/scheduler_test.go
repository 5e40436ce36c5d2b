package prompt

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/PaulFidika/licensekit/attest"
	"github.com/PaulFidika/licensekit/classify"
	"github.com/PaulFidika/licensekit/core"
	"github.com/PaulFidika/licensekit/session"
	"github.com/PaulFidika/licensekit/status"
	memorystore "github.com/PaulFidika/licensekit/storage/memory"
	testkit "github.com/PaulFidika/licensekit/testing"
)

type fixture struct {
	sched  *Scheduler
	ctrl   *session.Controller
	sc     *testkit.FakeStatusClient
	auth   *testkit.FakeAuthClient
	clock  *testkit.ManualClock
	prompt *attest.PromptStore
}

func newFixture(t *testing.T, covered bool) *fixture {
	t.Helper()
	store := memorystore.New()
	clock := testkit.NewManualClock(time.Unix(1700000000, 0).UTC())
	sc := &testkit.FakeStatusClient{}
	if covered {
		sc.Status = &core.StatusResult{
			EntitlementStatus: core.EntitlementStatus{HasEntitlement: true, IsActive: true, IsApproved: true},
			Code:              "LIC-1",
		}
	} else {
		sc.Status = &core.StatusResult{}
	}
	auth := &testkit.FakeAuthClient{Actor: &core.Actor{ID: uuid.New(), Email: "a@b.com"}}
	cache := attest.NewCache(store, attest.WithClock(clock))
	prompts := attest.NewPromptStore(store, clock)
	ctrl := session.NewController(session.Config{
		Auth:     auth,
		Resolver: status.NewResolver(sc, cache, clock, nil),
		Prompts:  prompts,
		Clock:    clock,
	})
	sched := NewScheduler(Config{}, sc, prompts, clock, nil)
	sched.Attach(ctrl)
	return &fixture{sched: sched, ctrl: ctrl, sc: sc, auth: auth, clock: clock, prompt: prompts}
}

func visible(t *testing.T, s *Scheduler) (Kind, core.PromptVariant) {
	t.Helper()
	ok, kind, variant := s.Visible()
	if !ok {
		t.Fatal("expected a visible prompt")
	}
	return kind, variant
}

func TestGuestPrompt_FiresAfterDelay(t *testing.T) {
	f := newFixture(t, false)

	if ok, _, _ := f.sched.Visible(); ok {
		t.Fatal("prompt visible before the delay")
	}
	f.clock.Advance(89 * time.Second)
	if ok, _, _ := f.sched.Visible(); ok {
		t.Fatal("prompt visible too early")
	}
	f.clock.Advance(time.Second)
	kind, _ := visible(t, f.sched)
	if kind != KindGuest {
		t.Fatalf("kind = %s", kind)
	}
}

func TestGuestPrompt_DismissPersistsMarker(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	f.clock.Advance(2 * time.Minute)
	visible(t, f.sched)
	if err := f.sched.Dismiss(ctx); err != nil {
		t.Fatal(err)
	}
	if ok, _, _ := f.sched.Visible(); ok {
		t.Fatal("prompt still visible after dismissal")
	}
	st, err := f.prompt.Get(ctx)
	if err != nil || !st.Shown {
		t.Fatalf("marker %+v %v", st, err)
	}
}

// expire drives the session back to anonymous without the full logout reset,
// so the guest marker survives.
func expire(t *testing.T, f *fixture) {
	t.Helper()
	if err := f.ctrl.Login(context.Background(), core.Credentials{}); err != nil {
		t.Fatal(err)
	}
	f.ctrl.HandleAuthFailure(context.Background(), classify.Outcome{Category: classify.CategoryAuth})
}

func TestGuestPrompt_AtMostOncePerRollingDay(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	f.clock.Advance(2 * time.Minute)
	visible(t, f.sched)
	if err := f.sched.Dismiss(ctx); err != nil {
		t.Fatal(err)
	}

	// Returning to anonymous re-arms the guest policy, but the marker
	// holds inside the window.
	expire(t, f)
	f.clock.Advance(10 * time.Minute)
	if ok, _, _ := f.sched.Visible(); ok {
		t.Fatal("guest re-prompted inside the 24h window")
	}
}

func TestGuestPrompt_MarkerExpiresAfterADay(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	f.clock.Advance(2 * time.Minute)
	visible(t, f.sched)
	if err := f.sched.Dismiss(ctx); err != nil {
		t.Fatal(err)
	}

	f.clock.Advance(25 * time.Hour)
	// Marker lapsed; the next anonymous transition arms a fresh timer.
	expire(t, f)
	f.clock.Advance(2 * time.Minute)
	kind, _ := visible(t, f.sched)
	if kind != KindGuest {
		t.Fatalf("kind = %s", kind)
	}
}

func TestLogout_ClearsGuestMarkerWithEverythingElse(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	f.clock.Advance(2 * time.Minute)
	visible(t, f.sched)
	if err := f.sched.Dismiss(ctx); err != nil {
		t.Fatal(err)
	}
	if err := f.ctrl.Login(ctx, core.Credentials{}); err != nil {
		t.Fatal(err)
	}
	if err := f.ctrl.Logout(ctx); err != nil {
		t.Fatal(err)
	}

	// Full reset wiped the marker, so the guest policy starts over.
	f.clock.Advance(2 * time.Minute)
	kind, _ := visible(t, f.sched)
	if kind != KindGuest {
		t.Fatalf("kind = %s", kind)
	}
}

func TestGuestPrompt_CancelledByLogin(t *testing.T) {
	// Scenario: guest timer pending, actor logs in before it fires.
	f := newFixture(t, true)
	ctx := context.Background()

	f.clock.Advance(30 * time.Second)
	if err := f.ctrl.Login(ctx, core.Credentials{}); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(5 * time.Minute)
	if ok, kind, _ := f.sched.Visible(); ok {
		t.Fatalf("stale guest timer fired after login (kind %s)", kind)
	}
}

func TestMemberPrompt_ImmediateVariant(t *testing.T) {
	// Scenario: authenticated without coverage, server says immediate.
	f := newFixture(t, false)
	f.sc.Decision = core.PromptDecision{ShouldShow: true, Variant: core.VariantImmediate}
	ctx := context.Background()

	if err := f.ctrl.Login(ctx, core.Credentials{}); err != nil {
		t.Fatal(err)
	}
	kind, variant := visible(t, f.sched)
	if kind != KindMember || variant != core.VariantImmediate {
		t.Fatalf("kind=%s variant=%s", kind, variant)
	}

	if err := f.sched.Dismiss(ctx); err != nil {
		t.Fatal(err)
	}
	if len(f.sc.Acks) != 1 || f.sc.Acks[0] != core.VariantImmediate {
		t.Fatalf("acks %v", f.sc.Acks)
	}
	// A second dismiss is a no-op.
	if err := f.sched.Dismiss(ctx); err != nil {
		t.Fatal(err)
	}
	if len(f.sc.Acks) != 1 {
		t.Fatalf("variant acknowledged twice: %v", f.sc.Acks)
	}
}

func TestMemberPrompt_DelayedVariant(t *testing.T) {
	f := newFixture(t, false)
	f.sc.Decision = core.PromptDecision{ShouldShow: true, Variant: core.VariantDelayed}
	ctx := context.Background()

	if err := f.ctrl.Login(ctx, core.Credentials{}); err != nil {
		t.Fatal(err)
	}
	if ok, _, _ := f.sched.Visible(); ok {
		t.Fatal("delayed variant must not show synchronously")
	}
	f.clock.Advance(2 * time.Minute)
	kind, variant := visible(t, f.sched)
	if kind != KindMember || variant != core.VariantDelayed {
		t.Fatalf("kind=%s variant=%s", kind, variant)
	}
}

func TestMemberPrompt_PendingDelayedSurvivesRefresh(t *testing.T) {
	// A refresh that still yields no coverage must not kill the pending
	// server-mandated delayed prompt.
	f := newFixture(t, false)
	f.sc.Decision = core.PromptDecision{ShouldShow: true, Variant: core.VariantDelayed}
	ctx := context.Background()

	if err := f.ctrl.Login(ctx, core.Credentials{}); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(time.Minute)
	if err := f.ctrl.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(2 * time.Minute)
	kind, variant := visible(t, f.sched)
	if kind != KindMember || variant != core.VariantDelayed {
		t.Fatalf("kind=%s variant=%s", kind, variant)
	}
}

func TestMemberPrompt_RefreshGainingCoverageCancels(t *testing.T) {
	f := newFixture(t, false)
	f.sc.Decision = core.PromptDecision{ShouldShow: true, Variant: core.VariantDelayed}
	ctx := context.Background()

	if err := f.ctrl.Login(ctx, core.Credentials{}); err != nil {
		t.Fatal(err)
	}
	// Acquisition completed; the next refresh confirms coverage.
	f.sc.Status = &core.StatusResult{
		EntitlementStatus: core.EntitlementStatus{HasEntitlement: true, IsActive: true, IsApproved: true},
		Code:              "LIC-1",
	}
	if err := f.ctrl.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(10 * time.Minute)
	if ok, _, _ := f.sched.Visible(); ok {
		t.Fatal("covered session must not be prompted")
	}
}

func TestMemberPrompt_NotShownWhenServerDeclines(t *testing.T) {
	f := newFixture(t, false)
	f.sc.Decision = core.PromptDecision{ShouldShow: false}

	if err := f.ctrl.Login(context.Background(), core.Credentials{}); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(10 * time.Minute)
	if ok, _, _ := f.sched.Visible(); ok {
		t.Fatal("server declined but prompt showed")
	}
	if f.sc.DecisionCalls != 1 {
		t.Fatalf("decision calls = %d", f.sc.DecisionCalls)
	}
}

func TestMemberPrompt_CoveredActorNeverAsksServer(t *testing.T) {
	f := newFixture(t, true)
	if err := f.ctrl.Login(context.Background(), core.Credentials{}); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(10 * time.Minute)
	if ok, _, _ := f.sched.Visible(); ok {
		t.Fatal("covered actor prompted")
	}
	if f.sc.DecisionCalls != 0 {
		t.Fatalf("decision calls = %d", f.sc.DecisionCalls)
	}
}

func TestMemberPrompt_PendingTimerCancelledByLogout(t *testing.T) {
	f := newFixture(t, false)
	f.sc.Decision = core.PromptDecision{ShouldShow: true, Variant: core.VariantDelayed}
	ctx := context.Background()

	if err := f.ctrl.Login(ctx, core.Credentials{}); err != nil {
		t.Fatal(err)
	}
	if err := f.ctrl.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	// Only the fresh guest timer may fire now.
	f.clock.Advance(3 * time.Minute)
	if ok, kind, _ := f.sched.Visible(); ok && kind == KindMember {
		t.Fatal("stale member timer fired after logout")
	}
}

func TestMemberPrompt_DecisionFailureIsAbsorbed(t *testing.T) {
	f := newFixture(t, false)
	f.sc.DecisionErr = context.DeadlineExceeded

	if err := f.ctrl.Login(context.Background(), core.Credentials{}); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(10 * time.Minute)
	if ok, _, _ := f.sched.Visible(); ok {
		t.Fatal("decision failure must not produce a prompt")
	}
}
