package session

// State is the actor identity lifecycle position.
type State int

const (
	// StateAnonymous: no identity; the guest prompt policy applies.
	StateAnonymous State = iota
	// StateAuthenticating: a login or registration exchange is in flight.
	StateAuthenticating
	// StateAuthenticated: identity set and a live EntitlementStatus held.
	StateAuthenticated
	// StateExpired: an authenticated call failed with a real auth error;
	// the credential and identity were cleared but the attestation cache
	// was kept (the same person may log back in shortly).
	StateExpired
	// StateLoggedOut: explicit logout; everything was cleared.
	StateLoggedOut
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateExpired:
		return "expired"
	case StateLoggedOut:
		return "logged-out"
	default:
		return "unknown"
	}
}
