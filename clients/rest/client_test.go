package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/PaulFidika/licensekit/classify"
	"github.com/PaulFidika/licensekit/core"
	"github.com/PaulFidika/licensekit/credential"
	memorystore "github.com/PaulFidika/licensekit/storage/memory"
)

func TestStatusClient_DecodesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/license/status" {
			t.Errorf("path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"has_entitlement":true,"is_active":true,"is_approved":false,"code":"LIC-3"}`))
	}))
	defer srv.Close()

	sc := NewStatusClient(Config{BaseURL: srv.URL, HTTP: srv.Client()})
	res, err := sc.GetEntitlementStatus(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res == nil || !res.HasEntitlement || !res.IsActive || res.IsApproved || res.Code != "LIC-3" {
		t.Fatalf("result %+v", res)
	}
}

func TestStatusClient_NullBodyYieldsNilStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`null`))
	}))
	defer srv.Close()

	sc := NewStatusClient(Config{BaseURL: srv.URL, HTTP: srv.Client()})
	res, err := sc.GetEntitlementStatus(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res != nil {
		t.Fatalf("null body must yield nil status, got %+v", res)
	}
}

func TestStatusClient_Non2xxBecomesRequestError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not registered yet"}`))
	}))
	defer srv.Close()

	sc := NewStatusClient(Config{BaseURL: srv.URL, HTTP: srv.Client()})
	_, err := sc.GetEntitlementStatus(context.Background())
	var req *classify.RequestError
	if !errors.As(err, &req) {
		t.Fatalf("err %T %v", err, err)
	}
	if req.StatusCode != http.StatusNotFound {
		t.Fatalf("status %d", req.StatusCode)
	}

	// End to end through the classifier: a status-check 404 with this
	// message is absorbed.
	out := classify.New(nil).Classify(err, EpStatus)
	if !out.Suppressed {
		t.Fatal("expected suppression")
	}
}

func TestStatusClient_BearerTokenAttached(t *testing.T) {
	gotAuth := ""
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"accepted":true}`))
	}))
	defer srv.Close()

	creds := credential.NewStore(memorystore.New())
	if err := creds.Set(context.Background(), "tok-1"); err != nil {
		t.Fatal(err)
	}
	sc := NewStatusClient(Config{BaseURL: srv.URL, HTTP: srv.Client(), Credentials: creds})
	accepted, err := sc.Reactivate(context.Background(), "LIC-3")
	if err != nil || !accepted {
		t.Fatalf("accepted=%v err=%v", accepted, err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("auth header %q", gotAuth)
	}
}

func TestAuthClient_LoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"actor":{"id":"7d7155b7-4b3c-4e3b-9dd4-79a25cf0d15c","email":"a@b.com"},"token":"fresh-token"}`))
	}))
	defer srv.Close()

	creds := credential.NewStore(memorystore.New())
	ac := NewAuthClient(Config{BaseURL: srv.URL, HTTP: srv.Client(), Credentials: creds})
	actor, err := ac.Login(context.Background(), core.Credentials{Email: "a@b.com", Password: "pw"})
	if err != nil {
		t.Fatal(err)
	}
	if actor == nil || actor.Email != "a@b.com" {
		t.Fatalf("actor %+v", actor)
	}
	if tok, _ := creds.Get(context.Background()); tok != "fresh-token" {
		t.Fatalf("token %q", tok)
	}
}

func TestAuthClient_TransportFailure(t *testing.T) {
	sc := NewStatusClient(Config{BaseURL: "http://127.0.0.1:1", HTTP: &http.Client{}})
	_, err := sc.GetEntitlementStatus(context.Background())
	if err == nil {
		t.Fatal("expected transport error")
	}
	var req *classify.RequestError
	if errors.As(err, &req) {
		t.Fatal("transport failure must not carry a RequestError")
	}
	if out := classify.New(nil).Classify(err, EpStatus); out.Category != classify.CategoryNetwork {
		t.Fatalf("category %s", out.Category)
	}
}
