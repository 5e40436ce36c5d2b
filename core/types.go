package core

import (
	"time"

	"github.com/google/uuid"
)

// Actor is the authenticated identity using the application. A nil *Actor
// means the caller is anonymous (guest).
type Actor struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	EntitlementFlags []string  `json:"entitlement_flags,omitempty"`
}

// EntitlementStatus is the resolved answer to "is this actor covered".
// IsActive and IsApproved carry meaning only while HasEntitlement is true.
type EntitlementStatus struct {
	HasEntitlement bool `json:"has_entitlement"`
	IsActive       bool `json:"is_active"`
	IsApproved     bool `json:"is_approved"`
}

// Normalize forces the subordinate flags false when HasEntitlement is false.
func (s EntitlementStatus) Normalize() EntitlementStatus {
	if !s.HasEntitlement {
		return EntitlementStatus{}
	}
	return s
}

// Entitled reports whether the status represents active coverage.
func (s EntitlementStatus) Entitled() bool {
	return s.HasEntitlement && s.IsActive
}

// StatusResult is the backend's status payload: the coverage flags plus the
// license code backing them (when covered). The code is what the attestation
// cache persists for later re-validation.
type StatusResult struct {
	EntitlementStatus
	Code string `json:"code,omitempty"`
}

// Attestation is the durable, locally cached proof of entitlement. It is
// written only after the backend has confirmed active coverage and read only
// as a fallback when the backend is unreachable or reports no coverage.
type Attestation struct {
	Code        string    `json:"code"`
	OwnerEmail  string    `json:"owner_email"`
	ActivatedAt time.Time `json:"activated_at"`
}

// PromptState tracks whether the guest acquisition prompt was already shown
// on this device, and when.
type PromptState struct {
	Shown   bool      `json:"shown"`
	ShownAt time.Time `json:"shown_at"`
}

// PromptVariant selects how an acquisition prompt should be presented.
type PromptVariant string

const (
	// VariantImmediate shows the prompt synchronously with no delay.
	VariantImmediate PromptVariant = "immediate"
	// VariantDelayed arms a one-shot timer before showing the prompt.
	VariantDelayed PromptVariant = "delayed"
)

// PromptDecision is the backend's answer to "should a prompt be shown now".
type PromptDecision struct {
	ShouldShow bool          `json:"should_show"`
	Variant    PromptVariant `json:"variant"`
}
