package rest

import (
	"context"
	"net/http"

	"github.com/PaulFidika/licensekit/core"
)

// AuthClient implements core.AuthClient against the auth REST API. Login and
// Register store the returned bearer token in the credential store.
type AuthClient struct {
	c caller
}

// NewAuthClient builds an auth client.
func NewAuthClient(cfg Config) *AuthClient {
	return &AuthClient{c: caller{cfg: cfg.defaulted()}}
}

type authResponse struct {
	Actor *core.Actor `json:"actor"`
	Token string      `json:"token"`
}

func (a *AuthClient) storeToken(ctx context.Context, token string) {
	if token == "" || a.c.cfg.Credentials == nil {
		return
	}
	_ = a.c.cfg.Credentials.Set(ctx, token)
}

func (a *AuthClient) CurrentActor(ctx context.Context) (*core.Actor, error) {
	var actor core.Actor
	ok, err := a.c.do(ctx, http.MethodGet, EpMe.Name, nil, &actor)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &actor, nil
}

func (a *AuthClient) Login(ctx context.Context, creds core.Credentials) (*core.Actor, error) {
	var res authResponse
	if _, err := a.c.do(ctx, http.MethodPost, EpLogin.Name, creds, &res); err != nil {
		return nil, err
	}
	a.storeToken(ctx, res.Token)
	return res.Actor, nil
}

func (a *AuthClient) Register(ctx context.Context, reg core.Registration) (*core.Actor, error) {
	var res authResponse
	if _, err := a.c.do(ctx, http.MethodPost, EpRegister.Name, reg, &res); err != nil {
		return nil, err
	}
	a.storeToken(ctx, res.Token)
	return res.Actor, nil
}

func (a *AuthClient) Logout(ctx context.Context) error {
	_, err := a.c.do(ctx, http.MethodPost, EpLogout.Name, nil, nil)
	return err
}
