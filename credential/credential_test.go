package credential

import (
	"context"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	memorystore "github.com/PaulFidika/licensekit/storage/memory"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore(memorystore.New())

	if tok, err := s.Get(ctx); err != nil || tok != "" {
		t.Fatalf("empty store: %q %v", tok, err)
	}
	if err := s.Set(ctx, "bearer-x"); err != nil {
		t.Fatal(err)
	}
	if tok, _ := s.Get(ctx); tok != "bearer-x" {
		t.Fatalf("got %q", tok)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if tok, _ := s.Get(ctx); tok != "" {
		t.Fatalf("after clear: %q", tok)
	}
}

func TestInspect_Claims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signed(t, jwt.MapClaims{
		"sub":   "user-1",
		"email": "a@b.com",
		"exp":   exp.Unix(),
	})

	info, err := Inspect(token)
	if err != nil {
		t.Fatal(err)
	}
	if info.Subject != "user-1" || info.Email != "a@b.com" {
		t.Fatalf("info %+v", info)
	}
	if !info.ExpiresAt.Equal(exp) {
		t.Fatalf("exp = %v, want %v", info.ExpiresAt, exp)
	}
	if info.Expired(time.Now()) {
		t.Fatal("future exp read as expired")
	}
	if !info.Expired(exp.Add(time.Minute)) {
		t.Fatal("past exp read as valid")
	}
}

func TestInspect_NoExpIsNotExpired(t *testing.T) {
	token := signed(t, jwt.MapClaims{"sub": "user-1"})
	info, err := Inspect(token)
	if err != nil {
		t.Fatal(err)
	}
	if info.Expired(time.Now().Add(1000 * time.Hour)) {
		t.Fatal("token without exp must not read as expired")
	}
}

func TestInspect_Garbage(t *testing.T) {
	if _, err := Inspect("not-a-jwt"); err == nil {
		t.Fatal("expected parse error")
	}
}
