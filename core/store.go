package core

import "context"

// Store is a device-scoped persistent key/value store. Implementations must
// survive process restarts (browser localStorage equivalent); see
// storage/memory, storage/redis and storage/postgres.
type Store interface {
	// Get returns the stored value and whether the key existed.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
}

// Well-known store keys shared by the attestation cache, the prompt marker
// store and the credential store. A single Store instance may back all three.
const (
	KeyAttestation = "license:attestation"
	KeyPromptState = "license:prompt_state"
	KeyCredential  = "auth:credential"
)
