package rest

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/PaulFidika/licensekit/core"
	"github.com/PaulFidika/licensekit/credential"
)

// OAuthAuthClient is an AuthClient variant for backends that mint tokens at
// an OAuth2 token endpoint (resource-owner password grant) instead of the
// login endpoint. Everything but Login delegates to the plain REST client.
type OAuthAuthClient struct {
	rest  *AuthClient
	oauth *oauth2.Config
	creds *credential.Store
}

// NewOAuthAuthClient wires the variant. oauthCfg must carry the token
// endpoint; creds receives the access token.
func NewOAuthAuthClient(cfg Config, oauthCfg *oauth2.Config) *OAuthAuthClient {
	return &OAuthAuthClient{
		rest:  NewAuthClient(cfg),
		oauth: oauthCfg,
		creds: cfg.Credentials,
	}
}

func (o *OAuthAuthClient) CurrentActor(ctx context.Context) (*core.Actor, error) {
	return o.rest.CurrentActor(ctx)
}

// Login exchanges the credentials at the token endpoint, stores the bearer
// token, then resolves the actor behind it.
func (o *OAuthAuthClient) Login(ctx context.Context, creds core.Credentials) (*core.Actor, error) {
	tok, err := o.oauth.PasswordCredentialsToken(ctx, creds.Email, creds.Password)
	if err != nil {
		return nil, fmt.Errorf("rest: token exchange: %w", err)
	}
	if o.creds != nil {
		if err := o.creds.Set(ctx, tok.AccessToken); err != nil {
			return nil, err
		}
	}
	return o.rest.CurrentActor(ctx)
}

// Register creates the account over REST, then logs in through the token
// endpoint so the credential comes from the same issuer as Login.
func (o *OAuthAuthClient) Register(ctx context.Context, reg core.Registration) (*core.Actor, error) {
	if _, err := o.rest.Register(ctx, reg); err != nil {
		return nil, err
	}
	return o.Login(ctx, core.Credentials{Email: reg.Email, Password: reg.Password})
}

func (o *OAuthAuthClient) Logout(ctx context.Context) error {
	return o.rest.Logout(ctx)
}
