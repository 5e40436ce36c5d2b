package attest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/PaulFidika/licensekit/core"
)

// PromptResetAfter is the rolling window after which a guest becomes
// eligible for the acquisition prompt again.
const PromptResetAfter = 24 * time.Hour

// PromptStore keeps the guest-only prompt markers next to the attestation.
type PromptStore struct {
	store core.Store
	clock core.Clock
}

// NewPromptStore builds a prompt marker store. A nil clock uses wall time.
func NewPromptStore(store core.Store, clock core.Clock) *PromptStore {
	if clock == nil {
		clock = core.RealClock{}
	}
	return &PromptStore{store: store, clock: clock}
}

// Get returns the prompt state with the 24-hour reset rule already applied:
// a marker older than the window reads as never-shown.
func (p *PromptStore) Get(ctx context.Context) (core.PromptState, error) {
	raw, ok, err := p.store.Get(ctx, core.KeyPromptState)
	if err != nil {
		return core.PromptState{}, fmt.Errorf("attest: prompt state read: %w", err)
	}
	if !ok {
		return core.PromptState{}, nil
	}
	var st core.PromptState
	if err := json.Unmarshal(raw, &st); err != nil {
		return core.PromptState{}, nil
	}
	if st.Shown && p.clock.Now().Sub(st.ShownAt) > PromptResetAfter {
		return core.PromptState{}, nil
	}
	return st, nil
}

// MarkShown records that the guest prompt was shown now.
func (p *PromptStore) MarkShown(ctx context.Context) error {
	st := core.PromptState{Shown: true, ShownAt: p.clock.Now()}
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("attest: prompt state encode: %w", err)
	}
	if err := p.store.Set(ctx, core.KeyPromptState, raw); err != nil {
		return fmt.Errorf("attest: prompt state write: %w", err)
	}
	return nil
}

// Clear removes the markers (full logout reset).
func (p *PromptStore) Clear(ctx context.Context) error {
	if err := p.store.Del(ctx, core.KeyPromptState); err != nil {
		return fmt.Errorf("attest: prompt state clear: %w", err)
	}
	return nil
}
