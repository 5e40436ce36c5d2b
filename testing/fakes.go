package testing

import (
	"context"
	"sync"

	"github.com/PaulFidika/licensekit/core"
)

// FakeStatusClient is a scripted core.StatusClient. Set the fields, then
// inspect the counters.
type FakeStatusClient struct {
	mu sync.Mutex

	Status    *core.StatusResult
	StatusErr error
	// Block, when set, runs inside GetEntitlementStatus after the call is
	// counted; tests use it to hold a resolution in flight.
	Block func()

	ReactivateAccepted bool
	ReactivateErr      error

	Decision    core.PromptDecision
	DecisionErr error

	AckErr error

	StatusCalls     int
	ReactivateCalls int
	ReactivateCodes []string
	DecisionCalls   int
	Acks            []core.PromptVariant
}

func (f *FakeStatusClient) GetEntitlementStatus(ctx context.Context) (*core.StatusResult, error) {
	f.mu.Lock()
	f.StatusCalls++
	block := f.Block
	statusErr := f.StatusErr
	var cp *core.StatusResult
	if f.Status != nil {
		c := *f.Status
		cp = &c
	}
	f.mu.Unlock()
	if block != nil {
		block()
	}
	if statusErr != nil {
		return nil, statusErr
	}
	return cp, nil
}

func (f *FakeStatusClient) Reactivate(ctx context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ReactivateCalls++
	f.ReactivateCodes = append(f.ReactivateCodes, code)
	if f.ReactivateErr != nil {
		return false, f.ReactivateErr
	}
	return f.ReactivateAccepted, nil
}

func (f *FakeStatusClient) GetPromptDecision(ctx context.Context) (core.PromptDecision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DecisionCalls++
	if f.DecisionErr != nil {
		return core.PromptDecision{}, f.DecisionErr
	}
	return f.Decision, nil
}

func (f *FakeStatusClient) AcknowledgePrompt(ctx context.Context, variant core.PromptVariant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AckErr != nil {
		return f.AckErr
	}
	f.Acks = append(f.Acks, variant)
	return nil
}

// FakeAuthClient is a scripted core.AuthClient.
type FakeAuthClient struct {
	mu sync.Mutex

	Actor       *core.Actor
	MeErr       error
	LoginErr    error
	RegisterErr error
	LogoutErr   error

	LoginCalls    int
	RegisterCalls int
	LogoutCalls   int
}

func (f *FakeAuthClient) CurrentActor(ctx context.Context) (*core.Actor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.MeErr != nil {
		return nil, f.MeErr
	}
	return f.Actor, nil
}

func (f *FakeAuthClient) Login(ctx context.Context, creds core.Credentials) (*core.Actor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LoginCalls++
	if f.LoginErr != nil {
		return nil, f.LoginErr
	}
	return f.Actor, nil
}

func (f *FakeAuthClient) Register(ctx context.Context, reg core.Registration) (*core.Actor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RegisterCalls++
	if f.RegisterErr != nil {
		return nil, f.RegisterErr
	}
	return f.Actor, nil
}

func (f *FakeAuthClient) Logout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LogoutCalls++
	return f.LogoutErr
}
