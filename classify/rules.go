package classify

import "strings"

// EndpointKind distinguishes how a failure from an endpoint should be read.
// A 404 from a status check is an expected negative answer; the same 404
// from an action endpoint is a real failure.
type EndpointKind int

const (
	// EndpointAction performs a mutation or fetch the user asked for.
	EndpointAction EndpointKind = iota
	// EndpointStatusCheck asks a yes/no question ("do I hold role X").
	EndpointStatusCheck
	// EndpointProbe checks an optional feature the actor may simply not
	// have opted into; its failures are never user-relevant.
	EndpointProbe
)

// Endpoint identifies the call that produced a failure.
type Endpoint struct {
	Name string
	Kind EndpointKind
}

// RuleKind tags the suppression rule variants. Rules are evaluated in list
// order before any categorization, and the first match wins.
type RuleKind int

const (
	// RuleProbeEndpoint suppresses every failure from probe endpoints,
	// plus any endpoint whose name matches a pattern.
	RuleProbeEndpoint RuleKind = iota + 1
	// RuleStatusMessage suppresses exact-match expected-negative messages,
	// but only when they come from a status-check endpoint.
	RuleStatusMessage
	// RuleMissingAuth suppresses missing-authorization failures (the actor
	// is mid-redirect) while letting expired/invalid-token failures
	// through untouched.
	RuleMissingAuth
)

// Rule is one declarative suppression decision. Patterns are interpreted per
// kind: endpoint-name suffixes for RuleProbeEndpoint, exact messages
// (case-insensitive) for RuleStatusMessage, message substrings for
// RuleMissingAuth. Except lists substrings that defeat the rule.
type Rule struct {
	Kind     RuleKind
	Patterns []string
	Except   []string
}

// DefaultRules reproduce the engine's stock suppression policy. Callers may
// prepend or replace rules via Config.
func DefaultRules() []Rule {
	return []Rule{
		{
			Kind:     RuleProbeEndpoint,
			Patterns: []string{"/feature-optin", "/notification-settings"},
		},
		{
			Kind: RuleStatusMessage,
			Patterns: []string{
				"not registered",
				"not registered yet",
				"user is not registered",
				"license not registered",
				"no license found",
			},
		},
		{
			Kind: RuleMissingAuth,
			Patterns: []string{
				"missing authorization",
				"authorization header required",
				"no authorization header",
			},
			Except: []string{"expired", "invalid"},
		},
	}
}

func (r Rule) matches(ep Endpoint, msg string) bool {
	switch r.Kind {
	case RuleProbeEndpoint:
		if ep.Kind == EndpointProbe {
			return true
		}
		for _, p := range r.Patterns {
			if p != "" && strings.HasSuffix(ep.Name, p) {
				return true
			}
		}
		return false
	case RuleStatusMessage:
		if ep.Kind != EndpointStatusCheck {
			return false
		}
		for _, p := range r.Patterns {
			if strings.EqualFold(strings.TrimSpace(msg), p) {
				return true
			}
		}
		return false
	case RuleMissingAuth:
		lower := strings.ToLower(msg)
		for _, x := range r.Except {
			if strings.Contains(lower, x) {
				return false
			}
		}
		for _, p := range r.Patterns {
			if strings.Contains(lower, p) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
