package credential

import (
	"context"
	"errors"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// AcceptConfig configures verify-only validation of tokens minted by an
// external issuer.
type AcceptConfig struct {
	Issuer   string
	Audience string
	Skew     time.Duration
}

// Verifier validates stored credentials against the issuer's key set.
// Optional: deployments that trust the backend's who-am-I endpoint can skip
// it entirely.
type Verifier struct {
	cfg    AcceptConfig
	keySet jwk.Set
}

// NewVerifier builds a verifier over a fetched or cached key set.
func NewVerifier(cfg AcceptConfig, keySet jwk.Set) *Verifier {
	return &Verifier{cfg: cfg, keySet: keySet}
}

// Verify checks signature, issuer, audience and time claims.
func (v *Verifier) Verify(ctx context.Context, raw string) error {
	if v.keySet == nil {
		return errors.New("credential: missing key set")
	}
	opts := []jwt.ParseOption{
		jwt.WithKeySet(v.keySet),
		jwt.WithValidate(true),
		jwt.WithContext(ctx),
		jwt.WithAcceptableSkew(v.cfg.Skew),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}
	_, err := jwt.ParseString(raw, opts...)
	return err
}
