package core

import "context"

// StatusClient is the backend contract for entitlement checks. Transport and
// payload format belong to the implementation (see clients/rest); errors it
// returns are fed through the classifier by callers.
type StatusClient interface {
	// GetEntitlementStatus returns the actor's coverage, or nil when the
	// backend has no answer. Callers must treat a nil status like a
	// transport failure, not like "no entitlement".
	GetEntitlementStatus(ctx context.Context) (*StatusResult, error)
	// Reactivate re-submits a previously issued license code for
	// re-validation. A false return means the code was revoked or moved
	// to another account.
	Reactivate(ctx context.Context, code string) (bool, error)
	// GetPromptDecision asks whether an acquisition prompt should be shown
	// to an authenticated actor without coverage, and which variant.
	GetPromptDecision(ctx context.Context) (PromptDecision, error)
	// AcknowledgePrompt reports that the given variant was shown and
	// dismissed, so the backend can throttle repeats.
	AcknowledgePrompt(ctx context.Context, variant PromptVariant) error
}

// Credentials are the inputs to a password login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration are the inputs to account creation.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// AuthClient is the backend contract for the actor identity lifecycle.
type AuthClient interface {
	// CurrentActor resolves the actor behind the stored credential.
	// Used by the silent boot sequence; a failure means the credential
	// is stale and must be discarded.
	CurrentActor(ctx context.Context) (*Actor, error)
	Login(ctx context.Context, creds Credentials) (*Actor, error)
	Register(ctx context.Context, reg Registration) (*Actor, error)
	Logout(ctx context.Context) error
}
