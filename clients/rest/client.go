// Package rest implements the backend contracts over plain HTTP. The engine
// itself never sees transport details; failures leave this package as
// classify.RequestError values carrying status code and body.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PaulFidika/licensekit/classify"
	"github.com/PaulFidika/licensekit/credential"
)

// Endpoint descriptors shared with the classifier, so suppression rules see
// the same names and kinds the clients use.
var (
	EpStatus     = classify.Endpoint{Name: "/license/status", Kind: classify.EndpointStatusCheck}
	EpReactivate = classify.Endpoint{Name: "/license/reactivate", Kind: classify.EndpointAction}
	EpPrompt     = classify.Endpoint{Name: "/license/prompt", Kind: classify.EndpointStatusCheck}
	EpPromptAck  = classify.Endpoint{Name: "/license/prompt/ack", Kind: classify.EndpointAction}
	EpMe         = classify.Endpoint{Name: "/auth/me", Kind: classify.EndpointStatusCheck}
	EpLogin      = classify.Endpoint{Name: "/auth/login", Kind: classify.EndpointAction}
	EpRegister   = classify.Endpoint{Name: "/auth/register", Kind: classify.EndpointAction}
	EpLogout     = classify.Endpoint{Name: "/auth/logout", Kind: classify.EndpointAction}
)

const maxBody = 1 << 20

// Config wires the REST clients.
type Config struct {
	BaseURL string
	// HTTP is the injected transport; defaults to http.DefaultClient.
	HTTP *http.Client
	// Credentials supplies the bearer token; nil sends unauthenticated
	// requests.
	Credentials *credential.Store
}

func (c Config) defaulted() Config {
	if c.HTTP == nil {
		c.HTTP = http.DefaultClient
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return c
}

type caller struct {
	cfg Config
}

// do issues one request. A non-2xx response becomes a *classify.RequestError;
// out (when non-nil) receives the decoded 2xx body. ok=false with nil error
// means the backend answered 2xx with an empty/null body.
func (c *caller) do(ctx context.Context, method, path string, in, out any) (ok bool, err error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return false, fmt.Errorf("rest: encode %s: %w", path, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return false, fmt.Errorf("rest: build %s: %w", path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Credentials != nil {
		if token, err := c.cfg.Credentials.Get(ctx); err == nil && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.cfg.HTTP.Do(req)
	if err != nil {
		return false, fmt.Errorf("rest: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return false, fmt.Errorf("rest: read %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, &classify.RequestError{StatusCode: resp.StatusCode, Body: raw}
	}
	if out == nil {
		return true, nil
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return false, fmt.Errorf("rest: decode %s: %w", path, err)
	}
	return true, nil
}
