package classify

import (
	"encoding/json"
	"fmt"
)

// RequestError is a backend failure that carried an HTTP response. Transport
// failures that never produced a response are any other error value.
type RequestError struct {
	StatusCode int
	Body       []byte
	Err        error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request failed: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("request failed: status %d", e.StatusCode)
}

func (e *RequestError) Unwrap() error { return e.Err }

// payload is the decoded response body, best-effort. Backends in the wild
// put the useful message under different keys; extraction order is defined
// in extractMessage.
type payload struct {
	ErrorField json.RawMessage `json:"error"`
	Message    string          `json:"message"`
	Details    string          `json:"details"`
	Code       string          `json:"code"`
}

type nestedError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *RequestError) decode() (payload, bool) {
	var p payload
	if len(e.Body) == 0 {
		return p, false
	}
	if err := json.Unmarshal(e.Body, &p); err != nil {
		return payload{}, false
	}
	return p, true
}

// extractMessage picks the most specific message available, in priority
// order: string `error` field, `message`, `details`, nested `error.message`.
// Returns "" when the body yields nothing usable.
func (e *RequestError) extractMessage() string {
	p, ok := e.decode()
	if !ok {
		return ""
	}
	if len(p.ErrorField) > 0 {
		var s string
		if err := json.Unmarshal(p.ErrorField, &s); err == nil && s != "" {
			return s
		}
	}
	if p.Message != "" {
		return p.Message
	}
	if p.Details != "" {
		return p.Details
	}
	if len(p.ErrorField) > 0 {
		var n nestedError
		if err := json.Unmarshal(p.ErrorField, &n); err == nil && n.Message != "" {
			return n.Message
		}
	}
	return ""
}

// errorCode returns the structured machine code, checking the top level and
// the nested error object.
func (e *RequestError) errorCode() string {
	p, ok := e.decode()
	if !ok {
		return ""
	}
	if p.Code != "" {
		return p.Code
	}
	if len(p.ErrorField) > 0 {
		var n nestedError
		if err := json.Unmarshal(p.ErrorField, &n); err == nil {
			return n.Code
		}
	}
	return ""
}
