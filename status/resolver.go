// Package status reconciles the backend status call, the local attestation
// cache and the recovery path into one normalized answer. Each resolution is
// a small state machine: query, then either refresh the cache, attempt
// recovery, or fall back to the cache, ending in entitled or not-entitled.
package status

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/PaulFidika/licensekit/attest"
	"github.com/PaulFidika/licensekit/core"
)

// Source records which path produced a resolution. The session controller
// and the revalidator use it to decide follow-up work: only backend-grade
// sources disarm background re-validation, and only a structured negative
// makes the prompt scheduler eligible to fire.
type Source int

const (
	// SourceBackend: the backend answered and the answer was used as-is.
	SourceBackend Source = iota
	// SourceRecovered: the backend said "no coverage" but re-validating
	// the cached code succeeded.
	SourceRecovered
	// SourceCacheOptimistic: the backend was unreachable and a matching
	// cached attestation was trusted instead.
	SourceCacheOptimistic
	// SourceConservative: the backend was unreachable and no matching
	// attestation existed; coverage was denied conservatively.
	SourceConservative
)

func (s Source) String() string {
	switch s {
	case SourceBackend:
		return "backend"
	case SourceRecovered:
		return "recovered"
	case SourceCacheOptimistic:
		return "cache-optimistic"
	default:
		return "conservative"
	}
}

// FromBackend reports whether the resolution reflects backend truth (as
// opposed to a local fallback).
func (s Source) FromBackend() bool {
	return s == SourceBackend || s == SourceRecovered
}

// Resolution is the outcome of one resolve call.
type Resolution struct {
	Status core.EntitlementStatus
	Source Source
}

// Resolver orchestrates status queries. It never returns an error: failures
// are folded into the fallback policy and surfaced through Source.
type Resolver struct {
	client core.StatusClient
	cache  *attest.Cache
	clock  core.Clock
	log    *logrus.Entry
}

// NewResolver wires a resolver. Clock and log may be nil.
func NewResolver(client core.StatusClient, cache *attest.Cache, clock core.Clock, log *logrus.Entry) *Resolver {
	if clock == nil {
		clock = core.RealClock{}
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = logrus.NewEntry(l)
	}
	return &Resolver{client: client, cache: cache, clock: clock, log: log}
}

func entitled() core.EntitlementStatus {
	return core.EntitlementStatus{HasEntitlement: true, IsActive: true, IsApproved: true}
}

// Resolve produces the actor's EntitlementStatus. Anonymous actors resolve
// to not-entitled without a backend call. No retry is automatic; the caller
// decides when to resolve again.
func (r *Resolver) Resolve(ctx context.Context, actor *core.Actor) Resolution {
	if actor == nil {
		return Resolution{Source: SourceBackend}
	}

	res, err := r.client.GetEntitlementStatus(ctx)
	if err != nil || res == nil {
		// A malformed/nil payload gets the same fallback as a transport
		// failure: the two are indistinguishable signals that the
		// backend has no usable answer right now.
		return r.fallback(ctx, actor, err)
	}

	st := res.Normalize()
	if st.Entitled() {
		r.refreshAttestation(ctx, actor, res.Code)
		return Resolution{Status: st, Source: SourceBackend}
	}

	if !st.HasEntitlement {
		recovered, rerr := r.cache.TryRecover(ctx, r.client, actor)
		if rerr != nil {
			r.log.WithError(rerr).Debug("attestation recovery failed")
		}
		if recovered {
			return Resolution{Status: entitled(), Source: SourceRecovered}
		}
	}
	return Resolution{Status: st, Source: SourceBackend}
}

// refreshAttestation writes the source-of-truth attestation. The write is
// skipped when the stored entry already matches, so back-to-back resolves
// with an unchanged backend answer leave the cache byte-stable.
func (r *Resolver) refreshAttestation(ctx context.Context, actor *core.Actor, code string) {
	if code == "" {
		return
	}
	existing, err := r.cache.GetFor(ctx, actor.Email)
	if err == nil && existing != nil && existing.Code == code {
		return
	}
	a := core.Attestation{Code: code, OwnerEmail: actor.Email, ActivatedAt: r.clock.Now()}
	if err := r.cache.Put(ctx, a); err != nil {
		r.log.WithError(err).Warn("attestation refresh failed")
	}
}

// fallback consults the cache after a backend failure, gated by the owner
// invariant. A matching attestation is trusted optimistically (assume a
// hiccup, not a revocation) without touching its timestamp.
func (r *Resolver) fallback(ctx context.Context, actor *core.Actor, cause error) Resolution {
	a, err := r.cache.GetFor(ctx, actor.Email)
	if err != nil {
		r.log.WithError(err).Warn("attestation cache unreadable during fallback")
	}
	if a != nil {
		r.log.WithError(cause).
			WithField("fingerprint", attest.Fingerprint(a.Code, a.OwnerEmail)).
			Info("backend unreachable, trusting cached attestation")
		return Resolution{Status: entitled(), Source: SourceCacheOptimistic}
	}
	r.log.WithError(cause).Info("backend unreachable and no cached attestation, denying coverage")
	return Resolution{Source: SourceConservative}
}
