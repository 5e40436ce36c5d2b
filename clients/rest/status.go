package rest

import (
	"context"
	"net/http"

	"github.com/PaulFidika/licensekit/core"
)

// StatusClient implements core.StatusClient against the licensing REST API.
type StatusClient struct {
	c caller
}

// NewStatusClient builds a status client.
func NewStatusClient(cfg Config) *StatusClient {
	return &StatusClient{c: caller{cfg: cfg.defaulted()}}
}

// GetEntitlementStatus returns nil (not an error) when the backend answers
// 2xx with an empty or null body; the resolver treats that like a failure.
func (s *StatusClient) GetEntitlementStatus(ctx context.Context) (*core.StatusResult, error) {
	var res core.StatusResult
	ok, err := s.c.do(ctx, http.MethodGet, EpStatus.Name, nil, &res)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &res, nil
}

func (s *StatusClient) Reactivate(ctx context.Context, code string) (bool, error) {
	in := struct {
		Code string `json:"code"`
	}{Code: code}
	var res struct {
		Accepted bool `json:"accepted"`
	}
	if _, err := s.c.do(ctx, http.MethodPost, EpReactivate.Name, in, &res); err != nil {
		return false, err
	}
	return res.Accepted, nil
}

func (s *StatusClient) GetPromptDecision(ctx context.Context) (core.PromptDecision, error) {
	var dec core.PromptDecision
	if _, err := s.c.do(ctx, http.MethodGet, EpPrompt.Name, nil, &dec); err != nil {
		return core.PromptDecision{}, err
	}
	return dec, nil
}

func (s *StatusClient) AcknowledgePrompt(ctx context.Context, variant core.PromptVariant) error {
	in := struct {
		Variant core.PromptVariant `json:"variant"`
	}{Variant: variant}
	_, err := s.c.do(ctx, http.MethodPost, EpPromptAck.Name, in, nil)
	return err
}
