// Package classify maps raw backend failures to a structured outcome:
// category, user-facing message, and whether the failure is an expected
// negative that must be absorbed silently.
//
// Centralizing suppression keeps the "is this error real" decision in one
// auditable place instead of scattered across every CRUD call site. The
// classifier never returns an error itself; rendering (or not rendering)
// is the caller's job.
package classify

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// Category buckets a failure for rendering and routing.
type Category string

const (
	CategoryNetwork     Category = "network"
	CategoryAuth        Category = "auth"
	CategoryEntitlement Category = "entitlement"
	CategoryValidation  Category = "validation"
	CategoryServer      Category = "server"
	CategoryUnknown     Category = "unknown"
)

// Display durations per category. Systemic failures (network, server) stay
// on screen longer because they are not caused by the current action.
const (
	ShortDuration = 3 * time.Second
	LongDuration  = 8 * time.Second
)

// Outcome is the classification result. When Suppressed is true the failure
// must have no user-visible effect; Message and Duration are still populated
// for logging.
type Outcome struct {
	Category   Category
	Message    string
	StatusCode int
	Suppressed bool
	Duration   time.Duration
}

// Config tunes the classifier. Zero value works; messages default to the
// stock catalog and rules to DefaultRules.
type Config struct {
	Rules []Rule
	// FallbackMessage is used for the unknown category when the failure
	// yields no message of its own.
	FallbackMessage string
	// NetworkMessage and ServerMessage are the generic wordings for
	// failures whose specific cause is unknowable to the client.
	NetworkMessage string
	ServerMessage  string
}

func (c *Config) defaulted() Config {
	if c == nil {
		return (&Config{}).defaulted()
	}
	out := *c
	if out.Rules == nil {
		out.Rules = DefaultRules()
	}
	if strings.TrimSpace(out.FallbackMessage) == "" {
		out.FallbackMessage = "Something went wrong. Please try again."
	}
	if strings.TrimSpace(out.NetworkMessage) == "" {
		out.NetworkMessage = "The service is unreachable. Please check your connection and try again."
	}
	if strings.TrimSpace(out.ServerMessage) == "" {
		out.ServerMessage = "The service is temporarily unavailable. Please try again in a few minutes."
	}
	return out
}

// Classifier applies the suppression rules and the category decision order.
type Classifier struct {
	cfg Config
}

// New builds a classifier. A nil config uses the stock policy.
func New(cfg *Config) *Classifier {
	return &Classifier{cfg: cfg.defaulted()}
}

// entitlement codes recognized as a structured "actor lacks coverage" signal.
var entitlementCodes = map[string]bool{
	"no_entitlement":       true,
	"entitlement_required": true,
	"license_required":     true,
}

// Classify maps a failure from the named endpoint to an Outcome. The
// suppression pass runs first and short-circuits categorization entirely, so
// a suppressed message stays suppressed no matter what status code carried it.
func (c *Classifier) Classify(err error, ep Endpoint) Outcome {
	if err == nil {
		return Outcome{Category: CategoryUnknown, Suppressed: true}
	}

	var req *RequestError
	hasResponse := errors.As(err, &req)

	msg := ""
	statusCode := 0
	code := ""
	if hasResponse {
		msg = req.extractMessage()
		statusCode = req.StatusCode
		code = req.errorCode()
	}
	if msg == "" {
		msg = err.Error()
	}

	for _, r := range c.cfg.Rules {
		if r.matches(ep, msg) {
			return Outcome{
				Category:   categoryOf(hasResponse, statusCode, code),
				Message:    msg,
				StatusCode: statusCode,
				Suppressed: true,
			}
		}
	}

	cat := categoryOf(hasResponse, statusCode, code)
	out := Outcome{Category: cat, StatusCode: statusCode}
	switch cat {
	case CategoryNetwork:
		out.Message = c.cfg.NetworkMessage
		out.Duration = LongDuration
	case CategoryServer:
		out.Message = c.cfg.ServerMessage
		out.Duration = LongDuration
	case CategoryValidation, CategoryAuth, CategoryEntitlement:
		out.Message = msg
		out.Duration = ShortDuration
	default:
		out.Message = c.cfg.FallbackMessage
		out.Duration = ShortDuration
	}
	return out
}

// categoryOf applies the decision order: structured entitlement signal, 401,
// 405/5xx, other 4xx, transport-level, unknown.
func categoryOf(hasResponse bool, statusCode int, code string) Category {
	if entitlementCodes[code] {
		return CategoryEntitlement
	}
	switch {
	case statusCode == http.StatusUnauthorized:
		return CategoryAuth
	case statusCode == http.StatusMethodNotAllowed || statusCode >= 500:
		return CategoryServer
	case statusCode >= 400 && statusCode < 500:
		return CategoryValidation
	case !hasResponse:
		return CategoryNetwork
	default:
		return CategoryUnknown
	}
}
